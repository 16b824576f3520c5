package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/data/aggregates"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/data/repos"
	repotest "github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/data/repos/testutil"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/domain"
	httpPkg "github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/http"
	httpH "github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/http/handlers"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/services"
)

type apiEnv struct {
	router *gin.Engine
	scope  repotest.Scope
}

func newAPIEnv(t *testing.T, kind domain.Kind, opts ...func(*domain.MetricDefinition)) *apiEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := repotest.DB(t)
	log := repotest.Logger(t)
	scope := repotest.SeedScope(t, db, kind, opts...)

	headers := repos.NewHeaderRepo(db, log)
	reported := repos.NewReportedValueRepo(db, log)
	metrics := repos.NewMetricDefinitionRepo(db, log)
	assignments := repos.NewAssignmentRepo(db, log)
	forms := repos.NewFormRepo(db, log)

	base := aggregates.BaseDeps{DB: db, Log: log}

	aggregation := services.NewAggregationService(services.AggregationDeps{
		Log:      log,
		Headers:  headers,
		Values:   repos.NewValueRepo(db, log),
		Points:   repos.NewPointRepo(db, log),
		Vehicles: repos.NewVehicleRepo(db, log),
		Fuels:    repos.NewFuelRepo(db, log),
		Reported: reported,
	})
	scheduler := services.NewRecalcScheduler(services.RecalcDeps{
		Base:        base,
		Metrics:     metrics,
		Assignments: assignments,
		Aggregation: aggregation,
		Runner:      services.NewSyncRunner(),
	})
	submission := services.NewSubmissionService(services.SubmissionDeps{
		Base:           base,
		Headers:        headers,
		Values:         repos.NewValueRepo(db, log),
		Rows:           repos.NewRowRepo(db, log),
		MaterialPoints: repos.NewMaterialPointRepo(db, log),
		Points:         repos.NewPointRepo(db, log),
		FieldSeries:    repos.NewFieldSeriesRepo(db, log),
		FieldData:      repos.NewFieldDataRepo(db, log),
		Vehicles:       repos.NewVehicleRepo(db, log),
		Fuels:          repos.NewFuelRepo(db, log),
		Metrics:        metrics,
		Assignments:    assignments,
		Recalc:         scheduler,
	})
	templates := services.NewTemplateLoader(services.TemplateLoaderDeps{
		Base:    base,
		Forms:   forms,
		Metrics: metrics,
	})

	router := httpPkg.NewRouter(httpPkg.RouterConfig{
		Log:                  log,
		SubmissionHandler:    httpH.NewSubmissionHandler(submission, headers),
		ReportedValueHandler: httpH.NewReportedValueHandler(reported, scheduler),
		MetricHandler:        httpH.NewMetricHandler(forms, metrics, assignments, templates, ""),
		HealthHandler:        httpH.NewHealthHandler(),
	})
	return &apiEnv{router: router, scope: scope}
}

func (e *apiEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func submitBody(sc repotest.Scope, value float64, period string) map[string]any {
	return map[string]any{
		"assignment_id":    sc.Assignment.ID,
		"metric_id":        sc.Metric.ID,
		"layer_id":         sc.Layer.ID,
		"reporting_period": period,
		"submitted_by":     "alex",
		"payload":          map[string]any{"value": map[string]any{"numeric_value": value}},
	}
}

func TestHealthcheck(t *testing.T) {
	env := newAPIEnv(t, domain.KindBasic)
	rec := env.do(t, http.MethodGet, "/healthcheck", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d", rec.Code)
	}
}

func TestSubmitAndReadBack(t *testing.T) {
	env := newAPIEnv(t, domain.KindBasic)

	rec := env.do(t, http.MethodPost, "/api/submissions", submitBody(env.scope, 120, "2024-06-15T00:00:00Z"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit status: want=201 got=%d body=%s", rec.Code, rec.Body.String())
	}
	var created struct {
		Submission struct {
			ID uuid.UUID `json:"id"`
		} `json:"submission"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	rec = env.do(t, http.MethodGet, "/api/submissions/"+created.Submission.ID.String(), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status: want=200 got=%d", rec.Code)
	}

	list := env.do(t, http.MethodGet, fmt.Sprintf("/api/submissions?assignment_id=%s&metric_id=%s&layer_id=%s",
		env.scope.Assignment.ID, env.scope.Metric.ID, env.scope.Layer.ID), nil)
	if list.Code != http.StatusOK {
		t.Fatalf("list status: want=200 got=%d", list.Code)
	}
}

func TestSubmitDuplicateReturnsConflict(t *testing.T) {
	env := newAPIEnv(t, domain.KindBasic)

	first := env.do(t, http.MethodPost, "/api/submissions", submitBody(env.scope, 10, "2024-06-15T00:00:00Z"))
	if first.Code != http.StatusCreated {
		t.Fatalf("first submit: want=201 got=%d", first.Code)
	}
	second := env.do(t, http.MethodPost, "/api/submissions", submitBody(env.scope, 11, "2024-06-15T00:00:00Z"))
	if second.Code != http.StatusConflict {
		t.Fatalf("duplicate submit: want=409 got=%d body=%s", second.Code, second.Body.String())
	}
}

func TestSubmitOutOfRangeReturnsBadRequest(t *testing.T) {
	env := newAPIEnv(t, domain.KindBasic)

	rec := env.do(t, http.MethodPost, "/api/submissions", submitBody(env.scope, 10, "2025-06-15T00:00:00Z"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("out-of-range submit: want=400 got=%d", rec.Code)
	}
}

func TestSubmitTriggersReportedValue(t *testing.T) {
	env := newAPIEnv(t, domain.KindBasic)

	rec := env.do(t, http.MethodPost, "/api/submissions", submitBody(env.scope, 120, "2024-06-15T00:00:00Z"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit status: want=201 got=%d", rec.Code)
	}

	list := env.do(t, http.MethodGet, "/api/assignments/"+env.scope.Assignment.ID.String()+"/reported-values", nil)
	if list.Code != http.StatusOK {
		t.Fatalf("list status: want=200 got=%d", list.Code)
	}
	var got struct {
		ReportedValues []struct {
			AggregatedNumericValue *float64 `json:"aggregated_numeric_value"`
			AggregationMethod      string   `json:"aggregation_method"`
		} `json:"reported_values"`
	}
	if err := json.Unmarshal(list.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.ReportedValues) != 1 {
		t.Fatalf("want one reported value, got %d: %s", len(got.ReportedValues), list.Body.String())
	}
	rv := got.ReportedValues[0]
	if rv.AggregatedNumericValue == nil || *rv.AggregatedNumericValue != 120 {
		t.Fatalf("aggregated value wrong: %s", list.Body.String())
	}
}

func TestRecomputeEndpoint(t *testing.T) {
	env := newAPIEnv(t, domain.KindBasic)

	if rec := env.do(t, http.MethodPost, "/api/submissions", submitBody(env.scope, 50, "2024-03-01T00:00:00Z")); rec.Code != http.StatusCreated {
		t.Fatalf("submit: want=201 got=%d", rec.Code)
	}

	rec := env.do(t, http.MethodPost, "/api/reported-values/recompute", map[string]any{
		"assignment_id":    env.scope.Assignment.ID,
		"metric_id":        env.scope.Metric.ID,
		"layer_id":         env.scope.Layer.ID,
		"reporting_period": "2024-12-31T00:00:00Z",
		"level":            "annual",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("recompute: want=200 got=%d body=%s", rec.Code, rec.Body.String())
	}
	var got struct {
		ReportedValue *struct {
			AggregatedNumericValue *float64 `json:"aggregated_numeric_value"`
		} `json:"reported_value"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ReportedValue == nil || got.ReportedValue.AggregatedNumericValue == nil || *got.ReportedValue.AggregatedNumericValue != 50 {
		t.Fatalf("recompute payload wrong: %s", rec.Body.String())
	}
}

func TestVerifySubmission(t *testing.T) {
	env := newAPIEnv(t, domain.KindBasic)

	rec := env.do(t, http.MethodPost, "/api/submissions", submitBody(env.scope, 9, "2024-02-01T00:00:00Z"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit: want=201 got=%d", rec.Code)
	}
	var created struct {
		Submission struct {
			ID uuid.UUID `json:"id"`
		} `json:"submission"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	verify := env.do(t, http.MethodPost, "/api/submissions/"+created.Submission.ID.String()+"/verify",
		map[string]any{"verified_by": "auditor"})
	if verify.Code != http.StatusOK {
		t.Fatalf("verify: want=200 got=%d body=%s", verify.Code, verify.Body.String())
	}
}

func TestFormCatalogEndpoints(t *testing.T) {
	env := newAPIEnv(t, domain.KindBasic)

	forms := env.do(t, http.MethodGet, "/api/forms", nil)
	if forms.Code != http.StatusOK {
		t.Fatalf("forms: want=200 got=%d", forms.Code)
	}
	metrics := env.do(t, http.MethodGet, "/api/forms/"+env.scope.Form.Code+"/metrics", nil)
	if metrics.Code != http.StatusOK {
		t.Fatalf("form metrics: want=200 got=%d", metrics.Code)
	}
	missing := env.do(t, http.MethodGet, "/api/forms/NOPE/metrics", nil)
	if missing.Code != http.StatusNotFound {
		t.Fatalf("unknown form: want=404 got=%d", missing.Code)
	}

	reload := env.do(t, http.MethodPost, "/api/templates/reload", nil)
	if reload.Code != http.StatusPreconditionFailed {
		t.Fatalf("reload without template dir: want=412 got=%d", reload.Code)
	}
}
