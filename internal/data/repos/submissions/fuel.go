package submissions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/domain"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/platform/logger"
)

// FuelUsageRow is one in-window monthly entry joined with its owning fuel
// source record.
type FuelUsageRow struct {
	SubmissionID uuid.UUID `gorm:"column:submission_id"`
	FuelRecordID uuid.UUID `gorm:"column:fuel_record_id"`
	SourceType   string    `gorm:"column:source_type"`
	FuelType     string    `gorm:"column:fuel_type"`
	Name         string    `gorm:"column:name"`
	Period       time.Time `gorm:"column:period"`
	FuelConsumed *float64  `gorm:"column:fuel_consumed"`
}

type FuelRepo interface {
	ListBySubmission(ctx context.Context, tx *gorm.DB, submissionID uuid.UUID) ([]*types.FuelRecord, error)
	CreateRecords(ctx context.Context, tx *gorm.DB, rows []*types.FuelRecord) error
	UpdateRecord(ctx context.Context, tx *gorm.DB, row *types.FuelRecord) error
	DeleteRecordsByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
	DeleteBySubmission(ctx context.Context, tx *gorm.DB, submissionID uuid.UUID) error

	GetRecordByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.FuelRecord, error)
	CreateMonthly(ctx context.Context, tx *gorm.DB, rows []*types.FuelMonthlyEntry) error
	UpdateMonthly(ctx context.Context, tx *gorm.DB, row *types.FuelMonthlyEntry) error
	DeleteMonthlyByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
	DeleteMonthlyByRecord(ctx context.Context, tx *gorm.DB, recordID uuid.UUID) error

	ListUsageInWindow(ctx context.Context, tx *gorm.DB, submissionIDs []uuid.UUID, start, end time.Time) ([]FuelUsageRow, error)
	ListPeriods(ctx context.Context, tx *gorm.DB, submissionID uuid.UUID) ([]time.Time, error)
}

type fuelRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFuelRepo(db *gorm.DB, baseLog *logger.Logger) FuelRepo {
	return &fuelRepo{db: db, log: baseLog.With("repo", "FuelRepo")}
}

func (r *fuelRepo) ListBySubmission(ctx context.Context, tx *gorm.DB, submissionID uuid.UUID) ([]*types.FuelRecord, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.FuelRecord
	if err := t.WithContext(ctx).
		Preload("Monthly", func(db *gorm.DB) *gorm.DB { return db.Order("period ASC") }).
		Where("submission_id = ?", submissionID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *fuelRepo) CreateRecords(ctx context.Context, tx *gorm.DB, rows []*types.FuelRecord) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	return t.WithContext(ctx).Create(&rows).Error
}

func (r *fuelRepo) UpdateRecord(ctx context.Context, tx *gorm.DB, row *types.FuelRecord) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).Omit("Monthly").Save(row).Error
}

func (r *fuelRepo) DeleteRecordsByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	if err := t.WithContext(ctx).Where("fuel_record_id IN ?", ids).Delete(&types.FuelMonthlyEntry{}).Error; err != nil {
		return err
	}
	return t.WithContext(ctx).Where("id IN ?", ids).Delete(&types.FuelRecord{}).Error
}

func (r *fuelRepo) DeleteBySubmission(ctx context.Context, tx *gorm.DB, submissionID uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	var ids []uuid.UUID
	if err := t.WithContext(ctx).Model(&types.FuelRecord{}).
		Where("submission_id = ?", submissionID).
		Pluck("id", &ids).Error; err != nil {
		return err
	}
	return r.DeleteRecordsByIDs(ctx, t, ids)
}

func (r *fuelRepo) GetRecordByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.FuelRecord, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out types.FuelRecord
	if err := t.WithContext(ctx).Where("id = ?", id).First(&out).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

func (r *fuelRepo) CreateMonthly(ctx context.Context, tx *gorm.DB, rows []*types.FuelMonthlyEntry) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	return t.WithContext(ctx).Create(&rows).Error
}

func (r *fuelRepo) UpdateMonthly(ctx context.Context, tx *gorm.DB, row *types.FuelMonthlyEntry) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).Save(row).Error
}

func (r *fuelRepo) DeleteMonthlyByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return t.WithContext(ctx).Where("id IN ?", ids).Delete(&types.FuelMonthlyEntry{}).Error
}

func (r *fuelRepo) DeleteMonthlyByRecord(ctx context.Context, tx *gorm.DB, recordID uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).Where("fuel_record_id = ?", recordID).Delete(&types.FuelMonthlyEntry{}).Error
}

func (r *fuelRepo) ListUsageInWindow(ctx context.Context, tx *gorm.DB, submissionIDs []uuid.UUID, start, end time.Time) ([]FuelUsageRow, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []FuelUsageRow
	if len(submissionIDs) == 0 {
		return out, nil
	}
	err := t.WithContext(ctx).
		Table("fuel_monthly_entry").
		Select(`fuel_record.submission_id AS submission_id,
			fuel_monthly_entry.fuel_record_id AS fuel_record_id,
			fuel_record.source_type AS source_type,
			fuel_record.fuel_type AS fuel_type,
			fuel_record.name AS name,
			fuel_monthly_entry.period AS period,
			fuel_monthly_entry.fuel_consumed AS fuel_consumed`).
		Joins("JOIN fuel_record ON fuel_record.id = fuel_monthly_entry.fuel_record_id").
		Where("fuel_record.submission_id IN ?", submissionIDs).
		Where("fuel_monthly_entry.period >= ? AND fuel_monthly_entry.period <= ?", types.Day(start), types.Day(end)).
		Order("fuel_monthly_entry.period ASC").
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *fuelRepo) ListPeriods(ctx context.Context, tx *gorm.DB, submissionID uuid.UUID) ([]time.Time, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []time.Time
	err := t.WithContext(ctx).
		Table("fuel_monthly_entry").
		Joins("JOIN fuel_record ON fuel_record.id = fuel_monthly_entry.fuel_record_id").
		Where("fuel_record.submission_id = ?", submissionID).
		Order("fuel_monthly_entry.period ASC").
		Pluck("fuel_monthly_entry.period", &out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
