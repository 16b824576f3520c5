package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/data/aggregates"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/data/repos"
	repotest "github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/data/repos/testutil"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/domain"
)

const electricityTemplate = `
form:
  code: ENV-KPI
  name: Environmental KPIs
metrics:
  - code: A2-1-ELEC
    name: Electricity consumption
    kind: time_series
    unit_type: numeric
    unit: kWh
    aggregates_inputs: true
    config:
      method: SUM
  - code: A1-NOTES
    name: Emission notes
    kind: basic
    unit_type: text
`

func newTemplateEnv(t *testing.T) (TemplateLoader, repos.FormRepo, repos.MetricDefinitionRepo) {
	t.Helper()
	db := repotest.DB(t)
	log := repotest.Logger(t)
	forms := repos.NewFormRepo(db, log)
	metrics := repos.NewMetricDefinitionRepo(db, log)
	loader := NewTemplateLoader(TemplateLoaderDeps{
		Base:    aggregates.BaseDeps{DB: db, Log: log},
		Forms:   forms,
		Metrics: metrics,
	})
	return loader, forms, metrics
}

func writeTemplate(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}
	return path
}

func TestLoadFileCreatesFormAndMetrics(t *testing.T) {
	loader, forms, metrics := newTemplateEnv(t)
	path := writeTemplate(t, t.TempDir(), "env.yaml", electricityTemplate)

	n, err := loader.LoadFile(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if n != 2 {
		t.Fatalf("want 2 metrics loaded, got %d", n)
	}

	form, err := forms.GetByCode(context.Background(), nil, "ENV-KPI")
	if err != nil || form == nil {
		t.Fatalf("form not created: %v", err)
	}
	elec, err := metrics.GetByCode(context.Background(), nil, "A2-1-ELEC")
	if err != nil || elec == nil {
		t.Fatalf("metric not created: %v", err)
	}
	if elec.Kind != domain.KindTimeSeries || !elec.AggregatesInputs {
		t.Fatalf("metric fields wrong: %+v", elec)
	}
	cfg, err := elec.TimeSeriesConfig()
	if err != nil {
		t.Fatalf("decode config: %v", err)
	}
	if cfg.Method != domain.MethodSum {
		t.Fatalf("config method: want=SUM got=%s", cfg.Method)
	}
}

func TestLoadFileUpsertsByCode(t *testing.T) {
	loader, _, metrics := newTemplateEnv(t)
	dir := t.TempDir()
	path := writeTemplate(t, dir, "env.yaml", electricityTemplate)

	if _, err := loader.LoadFile(context.Background(), path); err != nil {
		t.Fatalf("first load: %v", err)
	}
	before, _ := metrics.GetByCode(context.Background(), nil, "A2-1-ELEC")

	renamed := `
form:
  code: ENV-KPI
  name: Environmental KPIs
metrics:
  - code: A2-1-ELEC
    name: Purchased electricity
    kind: time_series
    unit_type: numeric
    unit: kWh
    aggregates_inputs: true
`
	path = writeTemplate(t, dir, "env.yaml", renamed)
	if _, err := loader.LoadFile(context.Background(), path); err != nil {
		t.Fatalf("second load: %v", err)
	}

	after, err := metrics.GetByCode(context.Background(), nil, "A2-1-ELEC")
	if err != nil || after == nil {
		t.Fatalf("metric missing after reload: %v", err)
	}
	if after.Name != "Purchased electricity" {
		t.Fatalf("reload should update in place, got %q", after.Name)
	}
	if before != nil && after.ID != before.ID {
		t.Fatalf("upsert must keep the metric id stable")
	}
}

func TestLoadFileRejectsInvalidKind(t *testing.T) {
	loader, _, metrics := newTemplateEnv(t)
	bad := `
form:
  code: BAD-KPI
  name: Broken
metrics:
  - code: OK-METRIC
    name: Fine
    kind: basic
  - code: BAD-METRIC
    name: Unknown
    kind: spreadsheet
`
	path := writeTemplate(t, t.TempDir(), "bad.yaml", bad)

	_, err := loader.LoadFile(context.Background(), path)
	if !domain.IsCode(err, domain.CodeValidation) {
		t.Fatalf("want CodeValidation, got %v", err)
	}
	// the whole file rolls back, including the valid metric before the bad one
	left, err := metrics.GetByCode(context.Background(), nil, "OK-METRIC")
	if err != nil {
		t.Fatalf("GetByCode: %v", err)
	}
	if left != nil {
		t.Fatalf("failed template must not leave partial definitions, got %+v", left)
	}
}

func TestLoadDirPicksUpYAMLFilesOnly(t *testing.T) {
	loader, _, _ := newTemplateEnv(t)
	dir := t.TempDir()
	writeTemplate(t, dir, "env.yaml", electricityTemplate)
	writeTemplate(t, dir, "readme.txt", "not a template")

	n, err := loader.LoadDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if n != 2 {
		t.Fatalf("want 2 metrics from the single yaml file, got %d", n)
	}
}
