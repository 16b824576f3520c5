package submissions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/domain"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/platform/logger"
)

// VehicleUsageRow is one in-window monthly entry joined with its owning
// vehicle record, as consumed by the vehicle aggregation algorithm.
type VehicleUsageRow struct {
	SubmissionID    uuid.UUID `gorm:"column:submission_id"`
	VehicleRecordID uuid.UUID `gorm:"column:vehicle_record_id"`
	VehicleType     string    `gorm:"column:vehicle_type"`
	FuelType        string    `gorm:"column:fuel_type"`
	Registration    string    `gorm:"column:registration"`
	Period          time.Time `gorm:"column:period"`
	Kilometers      *float64  `gorm:"column:kilometers"`
	FuelConsumed    *float64  `gorm:"column:fuel_consumed"`
}

type VehicleRepo interface {
	ListBySubmission(ctx context.Context, tx *gorm.DB, submissionID uuid.UUID) ([]*types.VehicleRecord, error)
	CreateRecords(ctx context.Context, tx *gorm.DB, rows []*types.VehicleRecord) error
	UpdateRecord(ctx context.Context, tx *gorm.DB, row *types.VehicleRecord) error
	DeleteRecordsByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
	DeleteBySubmission(ctx context.Context, tx *gorm.DB, submissionID uuid.UUID) error

	GetRecordByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.VehicleRecord, error)
	CreateMonthly(ctx context.Context, tx *gorm.DB, rows []*types.VehicleMonthlyEntry) error
	UpdateMonthly(ctx context.Context, tx *gorm.DB, row *types.VehicleMonthlyEntry) error
	DeleteMonthlyByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
	DeleteMonthlyByRecord(ctx context.Context, tx *gorm.DB, recordID uuid.UUID) error

	// ListUsageInWindow returns the joined monthly usage of the given
	// submissions inside [start, end] inclusive.
	ListUsageInWindow(ctx context.Context, tx *gorm.DB, submissionIDs []uuid.UUID, start, end time.Time) ([]VehicleUsageRow, error)
	// ListPeriods returns the raw monthly periods referenced by one
	// submission's vehicle entries.
	ListPeriods(ctx context.Context, tx *gorm.DB, submissionID uuid.UUID) ([]time.Time, error)
}

type vehicleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVehicleRepo(db *gorm.DB, baseLog *logger.Logger) VehicleRepo {
	return &vehicleRepo{db: db, log: baseLog.With("repo", "VehicleRepo")}
}

func (r *vehicleRepo) ListBySubmission(ctx context.Context, tx *gorm.DB, submissionID uuid.UUID) ([]*types.VehicleRecord, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.VehicleRecord
	if err := t.WithContext(ctx).
		Preload("Monthly", func(db *gorm.DB) *gorm.DB { return db.Order("period ASC") }).
		Where("submission_id = ?", submissionID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *vehicleRepo) CreateRecords(ctx context.Context, tx *gorm.DB, rows []*types.VehicleRecord) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	return t.WithContext(ctx).Create(&rows).Error
}

func (r *vehicleRepo) UpdateRecord(ctx context.Context, tx *gorm.DB, row *types.VehicleRecord) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).Omit("Monthly").Save(row).Error
}

func (r *vehicleRepo) DeleteRecordsByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	if err := t.WithContext(ctx).Where("vehicle_record_id IN ?", ids).Delete(&types.VehicleMonthlyEntry{}).Error; err != nil {
		return err
	}
	return t.WithContext(ctx).Where("id IN ?", ids).Delete(&types.VehicleRecord{}).Error
}

func (r *vehicleRepo) DeleteBySubmission(ctx context.Context, tx *gorm.DB, submissionID uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	var ids []uuid.UUID
	if err := t.WithContext(ctx).Model(&types.VehicleRecord{}).
		Where("submission_id = ?", submissionID).
		Pluck("id", &ids).Error; err != nil {
		return err
	}
	return r.DeleteRecordsByIDs(ctx, t, ids)
}

func (r *vehicleRepo) GetRecordByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.VehicleRecord, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out types.VehicleRecord
	if err := t.WithContext(ctx).Where("id = ?", id).First(&out).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

func (r *vehicleRepo) CreateMonthly(ctx context.Context, tx *gorm.DB, rows []*types.VehicleMonthlyEntry) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	return t.WithContext(ctx).Create(&rows).Error
}

func (r *vehicleRepo) UpdateMonthly(ctx context.Context, tx *gorm.DB, row *types.VehicleMonthlyEntry) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).Save(row).Error
}

func (r *vehicleRepo) DeleteMonthlyByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return t.WithContext(ctx).Where("id IN ?", ids).Delete(&types.VehicleMonthlyEntry{}).Error
}

func (r *vehicleRepo) DeleteMonthlyByRecord(ctx context.Context, tx *gorm.DB, recordID uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).Where("vehicle_record_id = ?", recordID).Delete(&types.VehicleMonthlyEntry{}).Error
}

func (r *vehicleRepo) ListUsageInWindow(ctx context.Context, tx *gorm.DB, submissionIDs []uuid.UUID, start, end time.Time) ([]VehicleUsageRow, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []VehicleUsageRow
	if len(submissionIDs) == 0 {
		return out, nil
	}
	err := t.WithContext(ctx).
		Table("vehicle_monthly_entry").
		Select(`vehicle_record.submission_id AS submission_id,
			vehicle_monthly_entry.vehicle_record_id AS vehicle_record_id,
			vehicle_record.vehicle_type AS vehicle_type,
			vehicle_record.fuel_type AS fuel_type,
			vehicle_record.registration AS registration,
			vehicle_monthly_entry.period AS period,
			vehicle_monthly_entry.kilometers AS kilometers,
			vehicle_monthly_entry.fuel_consumed AS fuel_consumed`).
		Joins("JOIN vehicle_record ON vehicle_record.id = vehicle_monthly_entry.vehicle_record_id").
		Where("vehicle_record.submission_id IN ?", submissionIDs).
		Where("vehicle_monthly_entry.period >= ? AND vehicle_monthly_entry.period <= ?", types.Day(start), types.Day(end)).
		Order("vehicle_monthly_entry.period ASC").
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *vehicleRepo) ListPeriods(ctx context.Context, tx *gorm.DB, submissionID uuid.UUID) ([]time.Time, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []time.Time
	err := t.WithContext(ctx).
		Table("vehicle_monthly_entry").
		Joins("JOIN vehicle_record ON vehicle_record.id = vehicle_monthly_entry.vehicle_record_id").
		Where("vehicle_record.submission_id = ?", submissionID).
		Order("vehicle_monthly_entry.period ASC").
		Pluck("vehicle_monthly_entry.period", &out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
