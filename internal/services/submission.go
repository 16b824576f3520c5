package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/calcexpr"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/data/aggregates"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/data/repos"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/domain"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/observability"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/pkg/dbctx"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/platform/logger"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/registry"
)

// SubmissionChange is the typed event emitted after every committed
// submission write. Months is the snapshot of affected child months, captured
// before the data may disappear.
type SubmissionChange struct {
	SubmissionID    uuid.UUID
	AssignmentID    uuid.UUID
	MetricID        uuid.UUID
	LayerID         uuid.UUID
	Kind            domain.Kind
	ReportingPeriod *time.Time
	Months          []time.Time
	Deleted         bool
}

// RecalcTrigger consumes submission change events strictly after commit.
type RecalcTrigger interface {
	SubmissionChanged(ctx context.Context, ev SubmissionChange)
}

type SubmitInput struct {
	AssignmentID     uuid.UUID
	MetricID         uuid.UUID
	LayerID          uuid.UUID
	ReportingPeriod  *time.Time
	SourceIdentifier *string
	SubmittedBy      string
	SubmittedAt      *time.Time
	Notes            string
	Payload          domain.PayloadInput
}

type UpdateInput struct {
	Notes   *string
	Payload *domain.PayloadInput
}

// SubmissionDetail is a header plus its kind payload, as served to readers.
type SubmissionDetail struct {
	Header         *domain.SubmissionHeader    `json:"header"`
	Value          *domain.SubmissionValue     `json:"value,omitempty"`
	Rows           []*domain.SubmissionRow     `json:"rows,omitempty"`
	MaterialPoints []*domain.MaterialDataPoint `json:"material_points,omitempty"`
	Points         []*domain.TimeSeriesPoint   `json:"points,omitempty"`
	FieldSeries    []*domain.FieldSeriesEntry  `json:"field_series,omitempty"`
	Fields         *domain.FieldDataEntry      `json:"fields,omitempty"`
	Vehicles       []*domain.VehicleRecord     `json:"vehicles,omitempty"`
	FuelSources    []*domain.FuelRecord        `json:"fuel_sources,omitempty"`
}

type SubmissionService interface {
	Submit(ctx context.Context, in SubmitInput) (*domain.SubmissionHeader, error)
	Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*domain.SubmissionHeader, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*SubmissionDetail, error)
	Verify(ctx context.Context, id uuid.UUID, verifiedBy string) (*domain.SubmissionHeader, error)
}

type SubmissionDeps struct {
	Base aggregates.BaseDeps

	Headers        repos.HeaderRepo
	Values         repos.ValueRepo
	Rows           repos.RowRepo
	MaterialPoints repos.MaterialPointRepo
	Points         repos.PointRepo
	FieldSeries    repos.FieldSeriesRepo
	FieldData      repos.FieldDataRepo
	Vehicles       repos.VehicleRepo
	Fuels          repos.FuelRepo

	Metrics     repos.MetricDefinitionRepo
	Assignments repos.AssignmentRepo

	Recalc RecalcTrigger
}

type submissionService struct {
	deps SubmissionDeps
	log  *logger.Logger
}

func NewSubmissionService(deps SubmissionDeps) SubmissionService {
	deps.Base = deps.Base.WithDefaults()
	return &submissionService{deps: deps, log: deps.Base.Log.With("service", "SubmissionService")}
}

func (s *submissionService) Submit(ctx context.Context, in SubmitInput) (*domain.SubmissionHeader, error) {
	const op = "Submission.Submit"
	if in.AssignmentID == uuid.Nil || in.MetricID == uuid.Nil || in.LayerID == uuid.Nil {
		return nil, domain.NewError(domain.CodeValidation, op, "missing assignment, metric or layer id", nil)
	}

	metric, err := s.deps.Metrics.GetByID(ctx, nil, in.MetricID)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if metric == nil {
		return nil, domain.NewError(domain.CodeNotFound, op, fmt.Sprintf("metric not found: %s", in.MetricID), nil)
	}
	assignment, err := s.deps.Assignments.GetByID(ctx, nil, in.AssignmentID)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if assignment == nil {
		return nil, domain.NewError(domain.CodeNotFound, op, fmt.Sprintf("assignment not found: %s", in.AssignmentID), nil)
	}
	if in.ReportingPeriod != nil && !assignment.ContainsPeriod(*in.ReportingPeriod) {
		return nil, domain.NewError(domain.CodeOutOfRange, op,
			fmt.Sprintf("reporting period %s outside assignment window", domain.Day(*in.ReportingPeriod).Format("2006-01-02")), nil)
	}
	if err := registry.ValidatePayload(metric, in.Payload); err != nil {
		return nil, err
	}

	submittedAt := time.Now().UTC()
	if in.SubmittedAt != nil {
		submittedAt = in.SubmittedAt.UTC()
	}
	var period *time.Time
	if in.ReportingPeriod != nil {
		p := domain.Day(*in.ReportingPeriod)
		period = &p
	}

	header := &domain.SubmissionHeader{
		ID:               uuid.New(),
		AssignmentID:     in.AssignmentID,
		MetricID:         in.MetricID,
		LayerID:          in.LayerID,
		ReportingPeriod:  period,
		SourceIdentifier: in.SourceIdentifier,
		SubmittedBy:      in.SubmittedBy,
		SubmittedAt:      submittedAt,
		Notes:            in.Notes,
	}
	if metric.AllowMultipleSubmissionsPerPeriod {
		header.UniquenessKey = header.ID.String()
	} else {
		header.UniquenessKey = domain.UniquenessKeyFor(in.AssignmentID, in.MetricID, in.LayerID, period)
	}

	err = aggregates.ExecuteWrite(ctx, s.deps.Base, op, func(dbc dbctx.Context) error {
		if err := s.deps.Headers.Create(dbc.Ctx, dbc.Tx, header); err != nil {
			return err
		}
		if err := s.createPayload(dbc, metric, header.ID, in.Payload); err != nil {
			return err
		}
		ev := SubmissionChange{
			SubmissionID:    header.ID,
			AssignmentID:    header.AssignmentID,
			MetricID:        header.MetricID,
			LayerID:         header.LayerID,
			Kind:            metric.Kind,
			ReportingPeriod: header.ReportingPeriod,
			Months:          monthsOf(payloadPeriods(metric.Kind, in.Payload)),
		}
		s.notifyAfterCommit(dbc, ev)
		return nil
	})
	if err != nil {
		return nil, err
	}
	observability.Current().IncSubmission(string(metric.Kind), "create")
	return header, nil
}

func (s *submissionService) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*domain.SubmissionHeader, error) {
	const op = "Submission.Update"
	if id == uuid.Nil {
		return nil, domain.NewError(domain.CodeValidation, op, "missing submission id", nil)
	}

	var header *domain.SubmissionHeader
	var kind domain.Kind
	err := aggregates.ExecuteWrite(ctx, s.deps.Base, op, func(dbc dbctx.Context) error {
		var err error
		header, err = s.deps.Headers.GetByID(dbc.Ctx, dbc.Tx, id)
		if err != nil {
			return err
		}
		if header == nil {
			return domain.NewError(domain.CodeNotFound, op, fmt.Sprintf("submission not found: %s", id), nil)
		}
		metric, err := s.deps.Metrics.GetByID(dbc.Ctx, dbc.Tx, header.MetricID)
		if err != nil {
			return err
		}
		if metric == nil {
			return domain.NewError(domain.CodeNotFound, op, fmt.Sprintf("metric not found: %s", header.MetricID), nil)
		}
		kind = metric.Kind

		before, err := s.childPeriods(dbc, metric.Kind, header.ID)
		if err != nil {
			return err
		}
		if in.Payload != nil {
			if err := registry.ValidatePayload(metric, *in.Payload); err != nil {
				return err
			}
			if err := s.applyPayloadDiff(dbc, metric, header.ID, *in.Payload); err != nil {
				return err
			}
		}
		if in.Notes != nil {
			header.Notes = *in.Notes
		}
		if err := s.deps.Headers.Save(dbc.Ctx, dbc.Tx, header); err != nil {
			return err
		}

		after := before
		if in.Payload != nil {
			after = payloadPeriods(metric.Kind, *in.Payload)
		}
		ev := SubmissionChange{
			SubmissionID:    header.ID,
			AssignmentID:    header.AssignmentID,
			MetricID:        header.MetricID,
			LayerID:         header.LayerID,
			Kind:            metric.Kind,
			ReportingPeriod: header.ReportingPeriod,
			Months:          monthsOf(append(append([]time.Time{}, before...), after...)),
		}
		s.notifyAfterCommit(dbc, ev)
		return nil
	})
	if err != nil {
		return nil, err
	}
	observability.Current().IncSubmission(string(kind), "update")
	return header, nil
}

func (s *submissionService) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "Submission.Delete"
	if id == uuid.Nil {
		return domain.NewError(domain.CodeValidation, op, "missing submission id", nil)
	}
	var kind domain.Kind
	err := aggregates.ExecuteWrite(ctx, s.deps.Base, op, func(dbc dbctx.Context) error {
		header, err := s.deps.Headers.GetByID(dbc.Ctx, dbc.Tx, id)
		if err != nil {
			return err
		}
		if header == nil {
			return domain.NewError(domain.CodeNotFound, op, fmt.Sprintf("submission not found: %s", id), nil)
		}
		metric, err := s.deps.Metrics.GetByID(dbc.Ctx, dbc.Tx, header.MetricID)
		if err != nil {
			return err
		}
		if metric == nil {
			return domain.NewError(domain.CodeNotFound, op, fmt.Sprintf("metric not found: %s", header.MetricID), nil)
		}
		kind = metric.Kind

		// Affected months must be captured before the children are gone.
		months, err := s.childPeriods(dbc, metric.Kind, header.ID)
		if err != nil {
			return err
		}
		if err := s.deletePayload(dbc, metric.Kind, header.ID); err != nil {
			return err
		}
		if err := s.deps.Headers.Delete(dbc.Ctx, dbc.Tx, header.ID); err != nil {
			return err
		}
		ev := SubmissionChange{
			SubmissionID:    header.ID,
			AssignmentID:    header.AssignmentID,
			MetricID:        header.MetricID,
			LayerID:         header.LayerID,
			Kind:            metric.Kind,
			ReportingPeriod: header.ReportingPeriod,
			Months:          monthsOf(months),
			Deleted:         true,
		}
		s.notifyAfterCommit(dbc, ev)
		return nil
	})
	if err != nil {
		return err
	}
	observability.Current().IncSubmission(string(kind), "delete")
	return nil
}

func (s *submissionService) Get(ctx context.Context, id uuid.UUID) (*SubmissionDetail, error) {
	const op = "Submission.Get"
	header, err := s.deps.Headers.GetByID(ctx, nil, id)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if header == nil {
		return nil, domain.NewError(domain.CodeNotFound, op, fmt.Sprintf("submission not found: %s", id), nil)
	}
	metric, err := s.deps.Metrics.GetByID(ctx, nil, header.MetricID)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if metric == nil {
		return nil, domain.NewError(domain.CodeNotFound, op, fmt.Sprintf("metric not found: %s", header.MetricID), nil)
	}

	out := &SubmissionDetail{Header: header}
	switch metric.Kind {
	case domain.KindBasic:
		out.Value, err = s.deps.Values.GetBySubmission(ctx, nil, id)
	case domain.KindTabular:
		out.Rows, err = s.deps.Rows.ListBySubmission(ctx, nil, id)
	case domain.KindMaterialMatrix:
		out.MaterialPoints, err = s.deps.MaterialPoints.ListBySubmission(ctx, nil, id)
	case domain.KindTimeSeries:
		out.Points, err = s.deps.Points.ListBySubmission(ctx, nil, id)
	case domain.KindMultiFieldTimeSeries:
		out.FieldSeries, err = s.deps.FieldSeries.ListBySubmission(ctx, nil, id)
	case domain.KindMultiField:
		out.Fields, err = s.deps.FieldData.GetBySubmission(ctx, nil, id)
	case domain.KindVehicleTracking:
		out.Vehicles, err = s.deps.Vehicles.ListBySubmission(ctx, nil, id)
	case domain.KindFuelConsumption:
		out.FuelSources, err = s.deps.Fuels.ListBySubmission(ctx, nil, id)
	}
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	return out, nil
}

func (s *submissionService) Verify(ctx context.Context, id uuid.UUID, verifiedBy string) (*domain.SubmissionHeader, error) {
	const op = "Submission.Verify"
	if id == uuid.Nil {
		return nil, domain.NewError(domain.CodeValidation, op, "missing submission id", nil)
	}
	var header *domain.SubmissionHeader
	err := aggregates.ExecuteWrite(ctx, s.deps.Base, op, func(dbc dbctx.Context) error {
		var err error
		header, err = s.deps.Headers.GetByID(dbc.Ctx, dbc.Tx, id)
		if err != nil {
			return err
		}
		if header == nil {
			return domain.NewError(domain.CodeNotFound, op, fmt.Sprintf("submission not found: %s", id), nil)
		}
		now := time.Now().UTC()
		header.Verified = true
		header.VerifiedBy = &verifiedBy
		header.VerifiedAt = &now
		return s.deps.Headers.Save(dbc.Ctx, dbc.Tx, header)
	})
	if err != nil {
		return nil, err
	}
	return header, nil
}

func (s *submissionService) notifyAfterCommit(dbc dbctx.Context, ev SubmissionChange) {
	if s.deps.Recalc == nil {
		return
	}
	dbc.AfterCommit(func(ctx context.Context) {
		s.deps.Recalc.SubmissionChanged(ctx, ev)
	})
}

// ---- payload create ----

func (s *submissionService) createPayload(dbc dbctx.Context, metric *domain.MetricDefinition, headerID uuid.UUID, p domain.PayloadInput) error {
	switch metric.Kind {
	case domain.KindBasic:
		return s.deps.Values.Upsert(dbc.Ctx, dbc.Tx, &domain.SubmissionValue{
			ID:           uuid.New(),
			SubmissionID: headerID,
			NumericValue: p.Value.NumericValue,
			TextValue:    p.Value.TextValue,
		})
	case domain.KindTabular:
		rows := make([]*domain.SubmissionRow, 0, len(p.Rows))
		for i, in := range p.Rows {
			data, err := encodeJSON(in.Data)
			if err != nil {
				return err
			}
			rows = append(rows, &domain.SubmissionRow{
				ID:           uuid.New(),
				SubmissionID: headerID,
				Position:     i,
				RowData:      data,
			})
		}
		return s.deps.Rows.Create(dbc.Ctx, dbc.Tx, rows)
	case domain.KindMaterialMatrix:
		points := make([]*domain.MaterialDataPoint, 0, len(p.MaterialPoints))
		for _, in := range p.MaterialPoints {
			points = append(points, &domain.MaterialDataPoint{
				ID:           uuid.New(),
				SubmissionID: headerID,
				Period:       domain.Day(in.Period),
				MaterialType: in.MaterialType,
				Value:        in.Value,
				Unit:         in.Unit,
			})
		}
		return s.deps.MaterialPoints.Create(dbc.Ctx, dbc.Tx, points)
	case domain.KindTimeSeries:
		points := make([]*domain.TimeSeriesPoint, 0, len(p.Points))
		for _, in := range p.Points {
			points = append(points, &domain.TimeSeriesPoint{
				ID:           uuid.New(),
				SubmissionID: headerID,
				Period:       domain.Day(in.Period),
				Value:        in.Value,
			})
		}
		return s.deps.Points.Create(dbc.Ctx, dbc.Tx, points)
	case domain.KindMultiFieldTimeSeries:
		entries := make([]*domain.FieldSeriesEntry, 0, len(p.FieldSeries))
		for _, in := range p.FieldSeries {
			fields, err := s.applyCalculatedFields(metric, in.Fields)
			if err != nil {
				return err
			}
			data, err := encodeJSON(fields)
			if err != nil {
				return err
			}
			entries = append(entries, &domain.FieldSeriesEntry{
				ID:           uuid.New(),
				SubmissionID: headerID,
				Period:       domain.Day(in.Period),
				FieldData:    data,
			})
		}
		return s.deps.FieldSeries.Create(dbc.Ctx, dbc.Tx, entries)
	case domain.KindMultiField:
		fields, err := s.applyCalculatedFields(metric, p.Fields)
		if err != nil {
			return err
		}
		data, err := encodeJSON(fields)
		if err != nil {
			return err
		}
		return s.deps.FieldData.Upsert(dbc.Ctx, dbc.Tx, &domain.FieldDataEntry{
			ID:           uuid.New(),
			SubmissionID: headerID,
			FieldData:    data,
		})
	case domain.KindVehicleTracking:
		for _, in := range p.Vehicles {
			record := &domain.VehicleRecord{
				ID:           uuid.New(),
				SubmissionID: headerID,
				VehicleType:  in.VehicleType,
				FuelType:     in.FuelType,
				Registration: in.Registration,
				Brand:        in.Brand,
				Model:        in.Model,
			}
			if err := s.deps.Vehicles.CreateRecords(dbc.Ctx, dbc.Tx, []*domain.VehicleRecord{record}); err != nil {
				return err
			}
			if err := s.deps.Vehicles.CreateMonthly(dbc.Ctx, dbc.Tx, newVehicleMonthly(record.ID, in.Monthly)); err != nil {
				return err
			}
		}
		return nil
	case domain.KindFuelConsumption:
		for _, in := range p.FuelSources {
			record := &domain.FuelRecord{
				ID:           uuid.New(),
				SubmissionID: headerID,
				SourceType:   in.SourceType,
				FuelType:     in.FuelType,
				Name:         in.Name,
			}
			if err := s.deps.Fuels.CreateRecords(dbc.Ctx, dbc.Tx, []*domain.FuelRecord{record}); err != nil {
				return err
			}
			if err := s.deps.Fuels.CreateMonthly(dbc.Ctx, dbc.Tx, newFuelMonthly(record.ID, in.Monthly)); err != nil {
				return err
			}
		}
		return nil
	}
	return domain.NewError(domain.CodeUnsupportedKind, "Submission.createPayload",
		fmt.Sprintf("unknown kind %q", metric.Kind), nil)
}

// ---- payload replace-by-diff ----

func (s *submissionService) applyPayloadDiff(dbc dbctx.Context, metric *domain.MetricDefinition, headerID uuid.UUID, p domain.PayloadInput) error {
	switch metric.Kind {
	case domain.KindBasic:
		return s.deps.Values.Upsert(dbc.Ctx, dbc.Tx, &domain.SubmissionValue{
			ID:           uuid.New(),
			SubmissionID: headerID,
			NumericValue: p.Value.NumericValue,
			TextValue:    p.Value.TextValue,
		})
	case domain.KindTabular:
		return s.diffRows(dbc, headerID, p.Rows)
	case domain.KindMaterialMatrix:
		return s.diffMaterialPoints(dbc, headerID, p.MaterialPoints)
	case domain.KindTimeSeries:
		return s.diffPoints(dbc, headerID, p.Points)
	case domain.KindMultiFieldTimeSeries:
		return s.diffFieldSeries(dbc, metric, headerID, p.FieldSeries)
	case domain.KindMultiField:
		fields, err := s.applyCalculatedFields(metric, p.Fields)
		if err != nil {
			return err
		}
		data, err := encodeJSON(fields)
		if err != nil {
			return err
		}
		return s.deps.FieldData.Upsert(dbc.Ctx, dbc.Tx, &domain.FieldDataEntry{
			ID:           uuid.New(),
			SubmissionID: headerID,
			FieldData:    data,
		})
	case domain.KindVehicleTracking:
		return s.diffVehicles(dbc, headerID, p.Vehicles)
	case domain.KindFuelConsumption:
		return s.diffFuelSources(dbc, headerID, p.FuelSources)
	}
	return domain.NewError(domain.CodeUnsupportedKind, "Submission.applyPayloadDiff",
		fmt.Sprintf("unknown kind %q", metric.Kind), nil)
}

func (s *submissionService) diffRows(dbc dbctx.Context, headerID uuid.UUID, inputs []domain.RowInput) error {
	existing, err := s.deps.Rows.ListBySubmission(dbc.Ctx, dbc.Tx, headerID)
	if err != nil {
		return err
	}
	known := make(map[uuid.UUID]*domain.SubmissionRow, len(existing))
	for _, row := range existing {
		known[row.ID] = row
	}

	seen := map[uuid.UUID]struct{}{}
	var creates []*domain.SubmissionRow
	for i, in := range inputs {
		data, err := encodeJSON(in.Data)
		if err != nil {
			return err
		}
		if in.ID != nil {
			if row, ok := known[*in.ID]; ok {
				row.Position = i
				row.RowData = data
				if err := s.deps.Rows.Update(dbc.Ctx, dbc.Tx, row); err != nil {
					return err
				}
				seen[row.ID] = struct{}{}
				continue
			}
			s.log.Warn("stale row id on update, recreating", "submission_id", headerID, "row_id", *in.ID)
		}
		creates = append(creates, &domain.SubmissionRow{
			ID:           uuid.New(),
			SubmissionID: headerID,
			Position:     i,
			RowData:      data,
		})
	}
	var deletes []uuid.UUID
	for _, row := range existing {
		if _, ok := seen[row.ID]; !ok {
			deletes = append(deletes, row.ID)
		}
	}
	if err := s.deps.Rows.DeleteByIDs(dbc.Ctx, dbc.Tx, deletes); err != nil {
		return err
	}
	return s.deps.Rows.Create(dbc.Ctx, dbc.Tx, creates)
}

func (s *submissionService) diffMaterialPoints(dbc dbctx.Context, headerID uuid.UUID, inputs []domain.MaterialInput) error {
	existing, err := s.deps.MaterialPoints.ListBySubmission(dbc.Ctx, dbc.Tx, headerID)
	if err != nil {
		return err
	}
	known := make(map[uuid.UUID]*domain.MaterialDataPoint, len(existing))
	for _, p := range existing {
		known[p.ID] = p
	}

	seen := map[uuid.UUID]struct{}{}
	var creates []*domain.MaterialDataPoint
	for _, in := range inputs {
		if in.ID != nil {
			if p, ok := known[*in.ID]; ok {
				p.Period = domain.Day(in.Period)
				p.MaterialType = in.MaterialType
				p.Value = in.Value
				p.Unit = in.Unit
				if err := s.deps.MaterialPoints.Update(dbc.Ctx, dbc.Tx, p); err != nil {
					return err
				}
				seen[p.ID] = struct{}{}
				continue
			}
			s.log.Warn("stale material point id on update, recreating", "submission_id", headerID, "point_id", *in.ID)
		}
		creates = append(creates, &domain.MaterialDataPoint{
			ID:           uuid.New(),
			SubmissionID: headerID,
			Period:       domain.Day(in.Period),
			MaterialType: in.MaterialType,
			Value:        in.Value,
			Unit:         in.Unit,
		})
	}
	var deletes []uuid.UUID
	for _, p := range existing {
		if _, ok := seen[p.ID]; !ok {
			deletes = append(deletes, p.ID)
		}
	}
	if err := s.deps.MaterialPoints.DeleteByIDs(dbc.Ctx, dbc.Tx, deletes); err != nil {
		return err
	}
	return s.deps.MaterialPoints.Create(dbc.Ctx, dbc.Tx, creates)
}

func (s *submissionService) diffPoints(dbc dbctx.Context, headerID uuid.UUID, inputs []domain.PointInput) error {
	existing, err := s.deps.Points.ListBySubmission(dbc.Ctx, dbc.Tx, headerID)
	if err != nil {
		return err
	}
	known := make(map[uuid.UUID]*domain.TimeSeriesPoint, len(existing))
	for _, p := range existing {
		known[p.ID] = p
	}

	seen := map[uuid.UUID]struct{}{}
	var creates []*domain.TimeSeriesPoint
	for _, in := range inputs {
		if in.ID != nil {
			if p, ok := known[*in.ID]; ok {
				p.Period = domain.Day(in.Period)
				p.Value = in.Value
				if err := s.deps.Points.Update(dbc.Ctx, dbc.Tx, p); err != nil {
					return err
				}
				seen[p.ID] = struct{}{}
				continue
			}
			s.log.Warn("stale point id on update, recreating", "submission_id", headerID, "point_id", *in.ID)
		}
		creates = append(creates, &domain.TimeSeriesPoint{
			ID:           uuid.New(),
			SubmissionID: headerID,
			Period:       domain.Day(in.Period),
			Value:        in.Value,
		})
	}
	var deletes []uuid.UUID
	for _, p := range existing {
		if _, ok := seen[p.ID]; !ok {
			deletes = append(deletes, p.ID)
		}
	}
	if err := s.deps.Points.DeleteByIDs(dbc.Ctx, dbc.Tx, deletes); err != nil {
		return err
	}
	return s.deps.Points.Create(dbc.Ctx, dbc.Tx, creates)
}

func (s *submissionService) diffFieldSeries(dbc dbctx.Context, metric *domain.MetricDefinition, headerID uuid.UUID, inputs []domain.FieldSeriesInput) error {
	existing, err := s.deps.FieldSeries.ListBySubmission(dbc.Ctx, dbc.Tx, headerID)
	if err != nil {
		return err
	}
	known := make(map[uuid.UUID]*domain.FieldSeriesEntry, len(existing))
	for _, e := range existing {
		known[e.ID] = e
	}

	seen := map[uuid.UUID]struct{}{}
	var creates []*domain.FieldSeriesEntry
	for _, in := range inputs {
		fields, err := s.applyCalculatedFields(metric, in.Fields)
		if err != nil {
			return err
		}
		data, err := encodeJSON(fields)
		if err != nil {
			return err
		}
		if in.ID != nil {
			if e, ok := known[*in.ID]; ok {
				e.Period = domain.Day(in.Period)
				e.FieldData = data
				if err := s.deps.FieldSeries.Update(dbc.Ctx, dbc.Tx, e); err != nil {
					return err
				}
				seen[e.ID] = struct{}{}
				continue
			}
			s.log.Warn("stale field series id on update, recreating", "submission_id", headerID, "entry_id", *in.ID)
		}
		creates = append(creates, &domain.FieldSeriesEntry{
			ID:           uuid.New(),
			SubmissionID: headerID,
			Period:       domain.Day(in.Period),
			FieldData:    data,
		})
	}
	var deletes []uuid.UUID
	for _, e := range existing {
		if _, ok := seen[e.ID]; !ok {
			deletes = append(deletes, e.ID)
		}
	}
	if err := s.deps.FieldSeries.DeleteByIDs(dbc.Ctx, dbc.Tx, deletes); err != nil {
		return err
	}
	return s.deps.FieldSeries.Create(dbc.Ctx, dbc.Tx, creates)
}

func (s *submissionService) diffVehicles(dbc dbctx.Context, headerID uuid.UUID, inputs []domain.VehicleInput) error {
	existing, err := s.deps.Vehicles.ListBySubmission(dbc.Ctx, dbc.Tx, headerID)
	if err != nil {
		return err
	}
	known := make(map[uuid.UUID]*domain.VehicleRecord, len(existing))
	for _, r := range existing {
		known[r.ID] = r
	}

	seen := map[uuid.UUID]struct{}{}
	for _, in := range inputs {
		if in.ID != nil {
			if r, ok := known[*in.ID]; ok {
				r.VehicleType = in.VehicleType
				r.FuelType = in.FuelType
				r.Registration = in.Registration
				r.Brand = in.Brand
				r.Model = in.Model
				if err := s.deps.Vehicles.UpdateRecord(dbc.Ctx, dbc.Tx, r); err != nil {
					return err
				}
				if err := s.diffVehicleMonthly(dbc, r, in.Monthly); err != nil {
					return err
				}
				seen[r.ID] = struct{}{}
				continue
			}
			s.log.Warn("stale vehicle id on update, recreating", "submission_id", headerID, "vehicle_id", *in.ID)
		}
		record := &domain.VehicleRecord{
			ID:           uuid.New(),
			SubmissionID: headerID,
			VehicleType:  in.VehicleType,
			FuelType:     in.FuelType,
			Registration: in.Registration,
			Brand:        in.Brand,
			Model:        in.Model,
		}
		if err := s.deps.Vehicles.CreateRecords(dbc.Ctx, dbc.Tx, []*domain.VehicleRecord{record}); err != nil {
			return err
		}
		if err := s.deps.Vehicles.CreateMonthly(dbc.Ctx, dbc.Tx, newVehicleMonthly(record.ID, in.Monthly)); err != nil {
			return err
		}
	}
	var deletes []uuid.UUID
	for _, r := range existing {
		if _, ok := seen[r.ID]; !ok {
			deletes = append(deletes, r.ID)
		}
	}
	return s.deps.Vehicles.DeleteRecordsByIDs(dbc.Ctx, dbc.Tx, deletes)
}

func (s *submissionService) diffVehicleMonthly(dbc dbctx.Context, record *domain.VehicleRecord, inputs []domain.MonthlyUsageInput) error {
	known := make(map[uuid.UUID]*domain.VehicleMonthlyEntry, len(record.Monthly))
	for i := range record.Monthly {
		known[record.Monthly[i].ID] = &record.Monthly[i]
	}

	seen := map[uuid.UUID]struct{}{}
	var creates []*domain.VehicleMonthlyEntry
	for _, in := range inputs {
		if in.ID != nil {
			if e, ok := known[*in.ID]; ok {
				e.Period = domain.Day(in.Period)
				e.Kilometers = in.Kilometers
				e.FuelConsumed = in.FuelConsumed
				if err := s.deps.Vehicles.UpdateMonthly(dbc.Ctx, dbc.Tx, e); err != nil {
					return err
				}
				seen[e.ID] = struct{}{}
				continue
			}
			s.log.Warn("stale vehicle monthly id on update, recreating", "vehicle_id", record.ID, "entry_id", *in.ID)
		}
		creates = append(creates, &domain.VehicleMonthlyEntry{
			ID:              uuid.New(),
			VehicleRecordID: record.ID,
			Period:          domain.Day(in.Period),
			Kilometers:      in.Kilometers,
			FuelConsumed:    in.FuelConsumed,
		})
	}
	var deletes []uuid.UUID
	for i := range record.Monthly {
		if _, ok := seen[record.Monthly[i].ID]; !ok {
			deletes = append(deletes, record.Monthly[i].ID)
		}
	}
	if err := s.deps.Vehicles.DeleteMonthlyByIDs(dbc.Ctx, dbc.Tx, deletes); err != nil {
		return err
	}
	return s.deps.Vehicles.CreateMonthly(dbc.Ctx, dbc.Tx, creates)
}

func (s *submissionService) diffFuelSources(dbc dbctx.Context, headerID uuid.UUID, inputs []domain.FuelSourceInput) error {
	existing, err := s.deps.Fuels.ListBySubmission(dbc.Ctx, dbc.Tx, headerID)
	if err != nil {
		return err
	}
	known := make(map[uuid.UUID]*domain.FuelRecord, len(existing))
	for _, r := range existing {
		known[r.ID] = r
	}

	seen := map[uuid.UUID]struct{}{}
	for _, in := range inputs {
		if in.ID != nil {
			if r, ok := known[*in.ID]; ok {
				r.SourceType = in.SourceType
				r.FuelType = in.FuelType
				r.Name = in.Name
				if err := s.deps.Fuels.UpdateRecord(dbc.Ctx, dbc.Tx, r); err != nil {
					return err
				}
				if err := s.diffFuelMonthly(dbc, r, in.Monthly); err != nil {
					return err
				}
				seen[r.ID] = struct{}{}
				continue
			}
			s.log.Warn("stale fuel source id on update, recreating", "submission_id", headerID, "source_id", *in.ID)
		}
		record := &domain.FuelRecord{
			ID:           uuid.New(),
			SubmissionID: headerID,
			SourceType:   in.SourceType,
			FuelType:     in.FuelType,
			Name:         in.Name,
		}
		if err := s.deps.Fuels.CreateRecords(dbc.Ctx, dbc.Tx, []*domain.FuelRecord{record}); err != nil {
			return err
		}
		if err := s.deps.Fuels.CreateMonthly(dbc.Ctx, dbc.Tx, newFuelMonthly(record.ID, in.Monthly)); err != nil {
			return err
		}
	}
	var deletes []uuid.UUID
	for _, r := range existing {
		if _, ok := seen[r.ID]; !ok {
			deletes = append(deletes, r.ID)
		}
	}
	return s.deps.Fuels.DeleteRecordsByIDs(dbc.Ctx, dbc.Tx, deletes)
}

func (s *submissionService) diffFuelMonthly(dbc dbctx.Context, record *domain.FuelRecord, inputs []domain.MonthlyUsageInput) error {
	known := make(map[uuid.UUID]*domain.FuelMonthlyEntry, len(record.Monthly))
	for i := range record.Monthly {
		known[record.Monthly[i].ID] = &record.Monthly[i]
	}

	seen := map[uuid.UUID]struct{}{}
	var creates []*domain.FuelMonthlyEntry
	for _, in := range inputs {
		if in.ID != nil {
			if e, ok := known[*in.ID]; ok {
				e.Period = domain.Day(in.Period)
				e.FuelConsumed = in.FuelConsumed
				if err := s.deps.Fuels.UpdateMonthly(dbc.Ctx, dbc.Tx, e); err != nil {
					return err
				}
				seen[e.ID] = struct{}{}
				continue
			}
			s.log.Warn("stale fuel monthly id on update, recreating", "source_id", record.ID, "entry_id", *in.ID)
		}
		creates = append(creates, &domain.FuelMonthlyEntry{
			ID:           uuid.New(),
			FuelRecordID: record.ID,
			Period:       domain.Day(in.Period),
			FuelConsumed: in.FuelConsumed,
		})
	}
	var deletes []uuid.UUID
	for i := range record.Monthly {
		if _, ok := seen[record.Monthly[i].ID]; !ok {
			deletes = append(deletes, record.Monthly[i].ID)
		}
	}
	if err := s.deps.Fuels.DeleteMonthlyByIDs(dbc.Ctx, dbc.Tx, deletes); err != nil {
		return err
	}
	return s.deps.Fuels.CreateMonthly(dbc.Ctx, dbc.Tx, creates)
}

// ---- payload delete ----

func (s *submissionService) deletePayload(dbc dbctx.Context, kind domain.Kind, headerID uuid.UUID) error {
	switch kind {
	case domain.KindBasic:
		return s.deps.Values.DeleteBySubmission(dbc.Ctx, dbc.Tx, headerID)
	case domain.KindTabular:
		return s.deps.Rows.DeleteBySubmission(dbc.Ctx, dbc.Tx, headerID)
	case domain.KindMaterialMatrix:
		return s.deps.MaterialPoints.DeleteBySubmission(dbc.Ctx, dbc.Tx, headerID)
	case domain.KindTimeSeries:
		return s.deps.Points.DeleteBySubmission(dbc.Ctx, dbc.Tx, headerID)
	case domain.KindMultiFieldTimeSeries:
		return s.deps.FieldSeries.DeleteBySubmission(dbc.Ctx, dbc.Tx, headerID)
	case domain.KindMultiField:
		return s.deps.FieldData.DeleteBySubmission(dbc.Ctx, dbc.Tx, headerID)
	case domain.KindVehicleTracking:
		return s.deps.Vehicles.DeleteBySubmission(dbc.Ctx, dbc.Tx, headerID)
	case domain.KindFuelConsumption:
		return s.deps.Fuels.DeleteBySubmission(dbc.Ctx, dbc.Tx, headerID)
	}
	return domain.NewError(domain.CodeUnsupportedKind, "Submission.deletePayload",
		fmt.Sprintf("unknown kind %q", kind), nil)
}

// ---- helpers ----

// childPeriods snapshots the raw periods currently stored for a submission's
// children. Only time-resolved kinds carry recalculation-relevant periods.
func (s *submissionService) childPeriods(dbc dbctx.Context, kind domain.Kind, headerID uuid.UUID) ([]time.Time, error) {
	switch kind {
	case domain.KindTimeSeries:
		return s.deps.Points.ListPeriods(dbc.Ctx, dbc.Tx, headerID)
	case domain.KindVehicleTracking:
		return s.deps.Vehicles.ListPeriods(dbc.Ctx, dbc.Tx, headerID)
	case domain.KindFuelConsumption:
		return s.deps.Fuels.ListPeriods(dbc.Ctx, dbc.Tx, headerID)
	}
	return nil, nil
}

// payloadPeriods extracts the periods carried by an inbound payload.
func payloadPeriods(kind domain.Kind, p domain.PayloadInput) []time.Time {
	var out []time.Time
	switch kind {
	case domain.KindTimeSeries:
		for _, pt := range p.Points {
			out = append(out, pt.Period)
		}
	case domain.KindVehicleTracking:
		for _, v := range p.Vehicles {
			for _, m := range v.Monthly {
				out = append(out, m.Period)
			}
		}
	case domain.KindFuelConsumption:
		for _, f := range p.FuelSources {
			for _, m := range f.Monthly {
				out = append(out, m.Period)
			}
		}
	}
	return out
}

// monthsOf normalizes raw periods to distinct month starts, ordered.
func monthsOf(periods []time.Time) []time.Time {
	seen := map[time.Time]struct{}{}
	var out []time.Time
	for _, p := range periods {
		m := domain.MonthStart(p)
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func (s *submissionService) applyCalculatedFields(metric *domain.MetricDefinition, fields map[string]any) (map[string]any, error) {
	const op = "Submission.applyCalculatedFields"
	cfg, err := metric.MultiFieldConfig()
	if err != nil {
		return nil, domain.NewError(domain.CodeValidation, op, "invalid multi-field config", err)
	}
	if len(cfg.CalculatedFields) == 0 {
		return fields, nil
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	for _, cf := range cfg.CalculatedFields {
		expr, err := calcexpr.Parse(cf.Expression)
		if err != nil {
			return nil, domain.NewError(domain.CodeValidation, op,
				fmt.Sprintf("calculated field %q: %v", cf.Target, err), err)
		}
		val, err := expr.Evaluate(out)
		if err != nil {
			s.log.Warn("calculated field evaluation failed, leaving target unset",
				"target", cf.Target, "expression", cf.Expression, "error", err)
			continue
		}
		out[cf.Target] = val
	}
	return out, nil
}

func newVehicleMonthly(recordID uuid.UUID, inputs []domain.MonthlyUsageInput) []*domain.VehicleMonthlyEntry {
	out := make([]*domain.VehicleMonthlyEntry, 0, len(inputs))
	for _, in := range inputs {
		out = append(out, &domain.VehicleMonthlyEntry{
			ID:              uuid.New(),
			VehicleRecordID: recordID,
			Period:          domain.Day(in.Period),
			Kilometers:      in.Kilometers,
			FuelConsumed:    in.FuelConsumed,
		})
	}
	return out
}

func newFuelMonthly(recordID uuid.UUID, inputs []domain.MonthlyUsageInput) []*domain.FuelMonthlyEntry {
	out := make([]*domain.FuelMonthlyEntry, 0, len(inputs))
	for _, in := range inputs {
		out = append(out, &domain.FuelMonthlyEntry{
			ID:           uuid.New(),
			FuelRecordID: recordID,
			Period:       domain.Day(in.Period),
			FuelConsumed: in.FuelConsumed,
		})
	}
	return out
}

func encodeJSON(v any) (datatypes.JSON, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, domain.NewError(domain.CodeValidation, "Submission.encodeJSON", "encode payload json", err)
	}
	return datatypes.JSON(raw), nil
}
