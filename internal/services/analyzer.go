package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/j-veylop/divvy-insights/internal/config"
	"github.com/j-veylop/divvy-insights/internal/logger"
	"github.com/j-veylop/divvy-insights/internal/models"
	"github.com/j-veylop/divvy-insights/internal/services/economics"
	"github.com/j-veylop/divvy-insights/internal/services/flow"
	"github.com/j-veylop/divvy-insights/internal/services/significance"
	"github.com/j-veylop/divvy-insights/internal/services/temporal"
	"github.com/j-veylop/divvy-insights/internal/trips"
)

// AllComponents lists every analysis in report order.
var AllComponents = []models.Component{
	models.ComponentFlow,
	models.ComponentEconomics,
	models.ComponentTemporal,
	models.ComponentSignificance,
}

// taskAliases maps CLI task names onto components.
var taskAliases = map[string]models.Component{
	"imbalance":  models.ComponentFlow,
	"ue":         models.ComponentEconomics,
	"efficiency": models.ComponentEconomics,
	"bimodal":    models.ComponentTemporal,
	"regression": models.ComponentSignificance,
}

// ParseTasks resolves a comma separated task list. "all" or an empty
// string selects every component.
func ParseTasks(s string) ([]models.Component, error) {
	var out []models.Component
	for _, name := range strings.Split(s, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		switch name {
		case "":
			continue
		case "all":
			return slices.Clone(AllComponents), nil
		}
		c, ok := taskAliases[name]
		if !ok {
			return nil, fmt.Errorf("unknown task %q (want all, bimodal, efficiency, imbalance, ue or regression)", name)
		}
		if !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return slices.Clone(AllComponents), nil
	}
	return out, nil
}

// Request selects the analyses of one run and their parameters.
type Request struct {
	Components []models.Component // empty runs every component
	Slice      string
	Flow       models.FlowConfig
	Temporal   models.TemporalConfig
	Pricing    models.PricingConfig
	Costs      models.CostConfig
	Response   string
	Covariates []string
	Demand     bool // regress hourly demand instead of a trip field
}

// NewRequest builds a request for every component from the configuration
// and tariff schedule.
func NewRequest(cfg *config.Config, tariffs *config.Tariffs) Request {
	req := Request{
		Flow:       cfg.FlowConfig(),
		Temporal:   cfg.TemporalConfig(),
		Response:   significance.DefaultResponse,
		Covariates: slices.Clone(significance.DefaultCovariates),
	}
	if tariffs != nil {
		req.Pricing = tariffs.Pricing
		req.Costs = tariffs.Costs
	}
	return req
}

func (r Request) components() []models.Component {
	if len(r.Components) == 0 {
		return AllComponents
	}
	return r.Components
}

// Analyzer runs the analysis components over one record set.
type Analyzer struct {
	now func() time.Time
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{now: time.Now}
}

// Run executes the requested components concurrently. A failing component
// is recorded in the report's Failures and leaves the others untouched;
// only cancellation of ctx aborts the run.
func (a *Analyzer) Run(ctx context.Context, rs *trips.RecordSet, req Request) (*models.AnalysisReport, error) {
	report := &models.AnalysisReport{
		RunID:     uuid.NewString(),
		CreatedAt: a.now(),
		Slice:     req.Slice,
		Records:   rs.Len(),
		Rejected:  len(rs.Rejected()),
		Failures:  make(map[models.Component]error),
	}

	var mu sync.Mutex
	fail := func(c models.Component, err error) {
		logger.Warn("analysis component failed", "component", c, "error", err)
		mu.Lock()
		report.Failures[c] = err
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, c := range req.components() {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := a.runComponent(c, rs, req, report); err != nil {
				fail(c, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger.Info("analysis finished",
		"run_id", report.RunID,
		"slice", report.Slice,
		"records", report.Records,
		"failures", len(report.Failures),
	)
	return report, nil
}

// runComponent writes only the report field owned by c.
func (a *Analyzer) runComponent(c models.Component, rs *trips.RecordSet, req Request, report *models.AnalysisReport) error {
	switch c {
	case models.ComponentFlow:
		res, err := flow.Compute(rs, req.Flow)
		if err != nil {
			return err
		}
		report.Flow = res
	case models.ComponentEconomics:
		res, err := economics.Compute(rs, req.Pricing, req.Costs)
		if err != nil {
			return err
		}
		report.Economics = res
	case models.ComponentTemporal:
		res, err := temporal.Compute(rs, req.Temporal)
		if err != nil {
			return err
		}
		report.Temporal = res
	case models.ComponentSignificance:
		var (
			res *models.SignificanceTestResult
			err error
		)
		if req.Demand {
			covariates := req.Covariates
			if len(covariates) == 0 {
				covariates = significance.DefaultDemandCovariates
			}
			res, err = significance.FitHourlyDemand(rs, covariates)
		} else {
			response := req.Response
			if response == "" {
				response = significance.DefaultResponse
			}
			res, err = significance.Fit(rs, response, req.Covariates)
		}
		if err != nil {
			return err
		}
		report.Significance = res
	default:
		return fmt.Errorf("unknown component %q", c)
	}
	return nil
}
