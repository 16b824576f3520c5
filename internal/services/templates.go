package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"

	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/data/aggregates"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/data/repos"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/domain"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/pkg/dbctx"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/platform/logger"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/registry"
)

// formTemplate is the YAML shape of one disclosure template file: a form and
// its metric definitions.
type formTemplate struct {
	Form struct {
		Code string `yaml:"code"`
		Name string `yaml:"name"`
	} `yaml:"form"`
	Metrics []metricTemplate `yaml:"metrics"`
}

type metricTemplate struct {
	Code     string   `yaml:"code"`
	Name     string   `yaml:"name"`
	Kind     string   `yaml:"kind"`
	Location string   `yaml:"location"`
	UnitType string   `yaml:"unit_type"`
	Unit     string   `yaml:"unit"`
	MinValue *float64 `yaml:"min_value"`
	MaxValue *float64 `yaml:"max_value"`

	AggregatesInputs                  bool `yaml:"aggregates_inputs"`
	AllowMultipleSubmissionsPerPeriod bool `yaml:"allow_multiple_submissions_per_period"`

	EmissionCategory     string `yaml:"emission_category"`
	EmissionSubcategory  string `yaml:"emission_subcategory"`
	EnergyCategory       string `yaml:"energy_category"`
	EnergySubcategory    string `yaml:"energy_subcategory"`
	PollutantCategory    string `yaml:"pollutant_category"`
	PollutantSubcategory string `yaml:"pollutant_subcategory"`

	Config map[string]any `yaml:"config"`
}

// TemplateLoader upserts metric definitions from YAML template files. Every
// definition passes registry config validation before anything is written, so
// a bad template leaves the catalog untouched.
type TemplateLoader interface {
	LoadFile(ctx context.Context, path string) (int, error)
	LoadDir(ctx context.Context, dir string) (int, error)
}

type TemplateLoaderDeps struct {
	Base    aggregates.BaseDeps
	Forms   repos.FormRepo
	Metrics repos.MetricDefinitionRepo
}

type templateLoader struct {
	deps TemplateLoaderDeps
	log  *logger.Logger
}

func NewTemplateLoader(deps TemplateLoaderDeps) TemplateLoader {
	deps.Base = deps.Base.WithDefaults()
	return &templateLoader{deps: deps, log: deps.Base.Log.With("service", "TemplateLoader")}
}

func (l *templateLoader) LoadDir(ctx context.Context, dir string) (int, error) {
	const op = "Templates.LoadDir"
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, domain.NewError(domain.CodeValidation, op, fmt.Sprintf("read template dir %s", dir), err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	total := 0
	for _, f := range files {
		n, err := l.LoadFile(ctx, f)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func (l *templateLoader) LoadFile(ctx context.Context, path string) (int, error) {
	const op = "Templates.LoadFile"
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, domain.NewError(domain.CodeValidation, op, fmt.Sprintf("read template %s", path), err)
	}
	var tpl formTemplate
	if err := yaml.Unmarshal(raw, &tpl); err != nil {
		return 0, domain.NewError(domain.CodeValidation, op, fmt.Sprintf("parse template %s", path), err)
	}
	if strings.TrimSpace(tpl.Form.Code) == "" {
		return 0, domain.NewError(domain.CodeValidation, op, fmt.Sprintf("template %s: missing form code", path), nil)
	}

	count := 0
	err = aggregates.ExecuteWrite(ctx, l.deps.Base, op, func(dbc dbctx.Context) error {
		form, err := l.deps.Forms.GetByCode(dbc.Ctx, dbc.Tx, tpl.Form.Code)
		if err != nil {
			return err
		}
		if form == nil {
			form = &domain.Form{
				ID:   uuid.New(),
				Code: tpl.Form.Code,
				Name: tpl.Form.Name,
			}
			if err := l.deps.Forms.Create(dbc.Ctx, dbc.Tx, form); err != nil {
				return err
			}
		}
		for _, mt := range tpl.Metrics {
			metric, err := metricFromTemplate(op, form.ID, mt)
			if err != nil {
				return err
			}
			if err := registry.ValidateConfig(metric); err != nil {
				return err
			}
			if err := l.deps.Metrics.UpsertByCode(dbc.Ctx, dbc.Tx, metric); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	l.log.Info("template loaded", "path", path, "form", tpl.Form.Code, "metrics", count)
	return count, nil
}

func metricFromTemplate(op string, formID uuid.UUID, mt metricTemplate) (*domain.MetricDefinition, error) {
	code := strings.TrimSpace(mt.Code)
	if code == "" {
		return nil, domain.NewError(domain.CodeValidation, op, "metric template missing code", nil)
	}
	kind := domain.Kind(strings.TrimSpace(mt.Kind))
	if !kind.Valid() {
		return nil, domain.NewError(domain.CodeValidation, op,
			fmt.Sprintf("metric %s: unknown kind %q", code, mt.Kind), nil)
	}

	unitType := domain.UnitType(strings.TrimSpace(mt.UnitType))
	if unitType == "" {
		unitType = domain.UnitNumeric
	}
	location := domain.Location(strings.TrimSpace(mt.Location))
	if location == "" {
		location = domain.LocationAll
	}

	var config datatypes.JSON
	if len(mt.Config) > 0 {
		raw, err := json.Marshal(mt.Config)
		if err != nil {
			return nil, domain.NewError(domain.CodeValidation, op,
				fmt.Sprintf("metric %s: encode config", code), err)
		}
		config = datatypes.JSON(raw)
	}

	return &domain.MetricDefinition{
		ID:       uuid.New(),
		FormID:   formID,
		Code:     code,
		Name:     mt.Name,
		Kind:     kind,
		Location: location,
		UnitType: unitType,
		Unit:     mt.Unit,
		MinValue: mt.MinValue,
		MaxValue: mt.MaxValue,

		AggregatesInputs:                  mt.AggregatesInputs,
		AllowMultipleSubmissionsPerPeriod: mt.AllowMultipleSubmissionsPerPeriod,

		EmissionCategory:     mt.EmissionCategory,
		EmissionSubcategory:  mt.EmissionSubcategory,
		EnergyCategory:       mt.EnergyCategory,
		EnergySubcategory:    mt.EnergySubcategory,
		PollutantCategory:    mt.PollutantCategory,
		PollutantSubcategory: mt.PollutantSubcategory,

		Config: config,
	}, nil
}
