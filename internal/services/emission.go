package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/data/repos"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/observability"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/platform/logger"
)

// EmissionNotifier is the outbound hook toward the emission calculation
// system. It is invoked post-commit with only the reported value id; the
// consumer re-fetches by primary key so it never sees pre-commit state.
type EmissionNotifier interface {
	ReportedValueChanged(ctx context.Context, reportedValueID uuid.UUID)
}

type noopEmissionNotifier struct{}

func NewNoopEmissionNotifier() EmissionNotifier { return noopEmissionNotifier{} }

func (noopEmissionNotifier) ReportedValueChanged(context.Context, uuid.UUID) {}

// reportedValueEvent is the wire shape published to the emission channel.
type reportedValueEvent struct {
	ReportedValueID     uuid.UUID `json:"reported_value_id"`
	AssignmentID        uuid.UUID `json:"assignment_id"`
	MetricID            uuid.UUID `json:"metric_id"`
	MetricCode          string    `json:"metric_code,omitempty"`
	LayerID             uuid.UUID `json:"layer_id"`
	ReportingPeriod     time.Time `json:"reporting_period"`
	Level               string    `json:"level"`
	NumericValue        *float64  `json:"numeric_value,omitempty"`
	EmissionCategory    string    `json:"emission_category,omitempty"`
	EmissionSubcategory string    `json:"emission_subcategory,omitempty"`
	EnergyCategory      string    `json:"energy_category,omitempty"`
	PollutantCategory   string    `json:"pollutant_category,omitempty"`
	CalculatedAt        time.Time `json:"calculated_at"`
}

type redisEmissionNotifier struct {
	log      *logger.Logger
	rdb      *goredis.Client
	channel  string
	reported repos.ReportedValueRepo
	metrics  repos.MetricDefinitionRepo
}

// NewRedisEmissionNotifier publishes reported-value change events to a redis
// channel. Requires REDIS_ADDR; the channel defaults to esg.reported_value.
func NewRedisEmissionNotifier(log *logger.Logger, reported repos.ReportedValueRepo, metrics repos.MetricDefinitionRepo) (EmissionNotifier, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	ch := strings.TrimSpace(os.Getenv("REDIS_EMISSION_CHANNEL"))
	if ch == "" {
		ch = "esg.reported_value"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisEmissionNotifier{
		log:      log.With("service", "RedisEmissionNotifier"),
		rdb:      rdb,
		channel:  ch,
		reported: reported,
		metrics:  metrics,
	}, nil
}

func (n *redisEmissionNotifier) ReportedValueChanged(ctx context.Context, reportedValueID uuid.UUID) {
	rv, err := n.reported.GetByID(ctx, nil, reportedValueID)
	if err != nil || rv == nil {
		n.log.Warn("emission notify: reported value unavailable", "reported_value_id", reportedValueID, "error", err)
		observability.Current().IncEmissionPublished("fetch_failed")
		return
	}
	ev := reportedValueEvent{
		ReportedValueID: rv.ID,
		AssignmentID:    rv.AssignmentID,
		MetricID:        rv.MetricID,
		LayerID:         rv.LayerID,
		ReportingPeriod: rv.ReportingPeriod,
		Level:           string(rv.Level),
		NumericValue:    rv.AggregatedNumericValue,
		CalculatedAt:    rv.CalculatedAt,
	}
	if metric, err := n.metrics.GetByID(ctx, nil, rv.MetricID); err == nil && metric != nil {
		ev.MetricCode = metric.Code
		ev.EmissionCategory = metric.EmissionCategory
		ev.EmissionSubcategory = metric.EmissionSubcategory
		ev.EnergyCategory = metric.EnergyCategory
		ev.PollutantCategory = metric.PollutantCategory
	}

	raw, err := json.Marshal(ev)
	if err != nil {
		n.log.Error("emission notify: encode failed", "reported_value_id", reportedValueID, "error", err)
		observability.Current().IncEmissionPublished("encode_failed")
		return
	}
	if err := n.rdb.Publish(ctx, n.channel, raw).Err(); err != nil {
		n.log.Error("emission notify: publish failed", "reported_value_id", reportedValueID, "error", err)
		observability.Current().IncEmissionPublished("publish_failed")
		return
	}
	observability.Current().IncEmissionPublished("published")
}

func (n *redisEmissionNotifier) Close() error {
	if n == nil || n.rdb == nil {
		return nil
	}
	return n.rdb.Close()
}
