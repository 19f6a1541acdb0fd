// Package pipeline runs decoded extraction output through the rule engine
// and records the results.
package pipeline

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/MannanGupta05/buildplanwizard/internal/adapter"
	"github.com/MannanGupta05/buildplanwizard/internal/metrics"
	"github.com/MannanGupta05/buildplanwizard/internal/model"
	"github.com/MannanGupta05/buildplanwizard/internal/resilience"
	"github.com/MannanGupta05/buildplanwizard/internal/rules"
	"github.com/MannanGupta05/buildplanwizard/internal/store"
)

// ErrNoStore is returned when archiving is requested without a store.
var ErrNoStore = eris.New("pipeline: no store configured")

// Pipeline validates batches of buildings. The store and the metrics
// recorder are optional.
type Pipeline struct {
	engine  *rules.Engine
	store   store.Store
	metrics *metrics.Recorder
	retry   resilience.RetryConfig
}

// New creates a Pipeline. st and rec may be nil. Archive writes are
// retried on transient store errors.
func New(engine *rules.Engine, st store.Store, rec *metrics.Recorder) *Pipeline {
	retry := resilience.DefaultRetryConfig()
	retry.OnRetry = resilience.RetryLogger("save run")
	return &Pipeline{engine: engine, store: st, metrics: rec, retry: retry}
}

// Engine returns the rule engine.
func (p *Pipeline) Engine() *rules.Engine { return p.engine }

// Store returns the run archive, or nil.
func (p *Pipeline) Store() store.Store { return p.store }

// Result is the outcome of validating one input.
type Result struct {
	Source      string                   `json:"source"`
	Reports     []model.ValidationReport `json:"reports"`
	Diagnostics []adapter.Diagnostic     `json:"diagnostics,omitempty"`
	RunIDs      []string                 `json:"run_ids,omitempty"`
}

// Validate evaluates every building of batch. With save set, each report
// is archived; a failed save returns the result so far together with the
// error.
func (p *Pipeline) Validate(ctx context.Context, source string, batch adapter.Batch, save bool) (*Result, error) {
	log := zap.L().With(zap.String("source", source))

	if save && p.store == nil {
		return nil, ErrNoStore
	}

	log.Debug("pipeline: batch decoded",
		zap.String("shape", string(batch.Shape)),
		zap.Strings("buildings", batch.IDs()),
	)
	for id, rec := range batch.Buildings {
		if rec.IsEmpty() {
			log.Warn("pipeline: building has no usable variables", zap.String("building", id))
		}
	}
	for _, d := range batch.Diagnostics {
		log.Warn("pipeline: input diagnostic",
			zap.String("building", d.BuildingID),
			zap.String("field", d.Field),
			zap.String("message", d.Message),
		)
	}

	reports := p.engine.ValidateAll(batch.Buildings)
	res := &Result{Source: source, Reports: reports, Diagnostics: batch.Diagnostics}

	if p.metrics != nil {
		p.metrics.ObserveDiagnostics(len(batch.Diagnostics))
		p.metrics.ObserveReports(reports)
	}

	for _, rep := range reports {
		log.Info("pipeline: building validated",
			zap.String("building", rep.BuildingID),
			zap.String("verdict", string(rep.Verdict())),
		)

		if !save {
			continue
		}
		run := model.NewRun(source, rep)
		err := resilience.Do(ctx, p.retry, func(ctx context.Context) error {
			return p.store.SaveRun(ctx, &run)
		})
		if err != nil {
			return res, eris.Wrapf(err, "pipeline: save run for %s", rep.BuildingID)
		}
		res.RunIDs = append(res.RunIDs, run.ID)
	}

	return res, nil
}

// ValidateFile loads a staged extraction file and validates it.
func (p *Pipeline) ValidateFile(ctx context.Context, path string, forceFlat, save bool) (*Result, error) {
	batch, err := adapter.LoadFile(path, forceFlat)
	if p.metrics != nil {
		p.metrics.ObserveFile(err)
	}
	if err != nil {
		return nil, err
	}
	return p.Validate(ctx, path, batch, save)
}

// Merge combines results into one report list sorted by building id. When
// two results carry the same building id the later one wins.
func Merge(results ...*Result) []model.ValidationReport {
	byID := make(map[string]model.ValidationReport)
	from := make(map[string]string)
	for _, res := range results {
		if res == nil {
			continue
		}
		for _, rep := range res.Reports {
			if prev, ok := from[rep.BuildingID]; ok {
				zap.L().Warn("pipeline: duplicate building id, later input wins",
					zap.String("building", rep.BuildingID),
					zap.String("previous", prev),
					zap.String("source", res.Source),
				)
			}
			byID[rep.BuildingID] = rep
			from[rep.BuildingID] = res.Source
		}
	}

	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]model.ValidationReport, 0, len(ids))
	for _, id := range ids {
		out = append(out, byID[id])
	}
	return out
}

// Diagnostics concatenates the diagnostics of results in order.
func Diagnostics(results ...*Result) []adapter.Diagnostic {
	var out []adapter.Diagnostic
	for _, res := range results {
		if res != nil {
			out = append(out, res.Diagnostics...)
		}
	}
	return out
}
