// Package generator assembles the rows of a generation run.
package generator

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/kozaktomas/stock-metadata/internal/constants"
	"github.com/kozaktomas/stock-metadata/internal/keywords"
	"github.com/kozaktomas/stock-metadata/internal/metrics"
	"github.com/kozaktomas/stock-metadata/internal/stockcsv"
	"github.com/kozaktomas/stock-metadata/internal/title"
)

// ProgressInfo contains progress information for callbacks
type ProgressInfo struct {
	Current  int
	Total    int
	Filename string
	Title    string
}

// Options configures a single Generate call.
type Options struct {
	OnProgress func(ProgressInfo) // optional, called once per finished row
}

// Result is the outcome of a run. Records always form a contiguous prefix
// of the requested rows, in row order.
type Result struct {
	Records    []stockcsv.Record
	AIFailures int
	Cancelled  bool
	Seed       uint64
	Duration   time.Duration
}

// Preview returns at most n leading records.
func (r *Result) Preview(n int) []stockcsv.Record {
	return r.Records[:min(n, len(r.Records))]
}

type Generator struct {
	requester *title.Requester
	vocab     *title.Vocabulary
	logger    zerolog.Logger
}

// New creates a Generator. requester may be nil when AI titles are not used;
// a nil vocab selects the embedded default.
func New(requester *title.Requester, vocab *title.Vocabulary, logger zerolog.Logger) *Generator {
	if vocab == nil {
		vocab = title.DefaultVocabulary()
	}
	return &Generator{
		requester: requester,
		vocab:     vocab,
		logger:    logger,
	}
}

// rowResult holds the result of building a single row
type rowResult struct {
	record   stockcsv.Record
	aiFailed bool
	done     bool
}

// Generate validates cfg and builds cfg.Rows records. Rows are built
// concurrently, each from its own random stream derived from the seed and the
// row index, so a seed reproduces the same output at any concurrency.
// Cancelling ctx stops the run; the rows finished before the first missing one
// are returned with Cancelled set.
func (g *Generator) Generate(ctx context.Context, cfg GenerationConfig, opts Options) (*Result, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(g.requester != nil); err != nil {
		return nil, err
	}
	if cfg.Seed == 0 {
		cfg.Seed = rand.Uint64()
	}

	start := time.Now()
	g.logger.Info().
		Str("strategy", string(cfg.Strategy)).
		Str("mode", string(cfg.Mode)).
		Int("rows", cfg.Rows).
		Int("keywords", len(cfg.Keywords)).
		Uint64("seed", cfg.Seed).
		Msg("generation started")

	rows := make([]rowResult, cfg.Rows)
	aiSem := semaphore.NewWeighted(int64(cfg.AIConcurrency))

	var processedCount int
	var progressMu sync.Mutex
	reportProgress := func(rec stockcsv.Record) {
		if opts.OnProgress == nil {
			return
		}
		progressMu.Lock()
		defer progressMu.Unlock()
		processedCount++
		opts.OnProgress(ProgressInfo{
			Current:  processedCount,
			Total:    cfg.Rows,
			Filename: rec.Filename,
			Title:    rec.Title,
		})
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(cfg.Concurrency)

	for i := range cfg.Rows {
		if ctx.Err() != nil {
			break
		}
		eg.Go(func() error {
			if egCtx.Err() != nil {
				return nil
			}
			row, ok := g.buildRow(egCtx, &cfg, i, aiSem)
			if !ok {
				return nil
			}
			rows[i] = row
			reportProgress(row.record)
			return nil
		})
	}
	_ = eg.Wait()

	result := &Result{Seed: cfg.Seed}
	for _, row := range rows {
		if !row.done {
			break
		}
		result.Records = append(result.Records, row.record)
		if row.aiFailed {
			result.AIFailures++
		}
	}
	result.Cancelled = len(result.Records) < cfg.Rows
	result.Duration = time.Since(start)

	metrics.ObserveRun(string(cfg.Strategy), len(result.Records), result.AIFailures, result.Duration, result.Cancelled)

	event := g.logger.Info()
	if result.Cancelled {
		event = g.logger.Warn()
	}
	event.
		Int("rows", len(result.Records)).
		Int("ai_failures", result.AIFailures).
		Bool("cancelled", result.Cancelled).
		Dur("duration", result.Duration).
		Msg("generation finished")

	return result, nil
}

// buildRow builds the record of the 0-based row index. ok is false when the
// row was interrupted by cancellation.
func (g *Generator) buildRow(ctx context.Context, cfg *GenerationConfig, index int, aiSem *semaphore.Weighted) (row rowResult, ok bool) {
	rng := rand.New(rand.NewPCG(cfg.Seed, uint64(index)))

	rec := stockcsv.Record{
		Filename: stockcsv.Filename(index + 1),
		Keywords: keywords.Rotate(cfg.Keywords, cfg.Mode, cfg.HeadSize, rng),
		Category: cfg.Category,
		Releases: constants.ReleasesValue,
	}

	switch cfg.Strategy {
	case title.StrategyNatural:
		rec.Title = title.Natural(cfg.Subject, cfg.Keywords, g.vocab, rng)
	case title.StrategyStuffer:
		rec.Title = title.Stuff(cfg.Subject, cfg.Keywords, title.StufferOptions{
			Budget: cfg.StufferBudget,
			Stride: cfg.ConnectorStride,
		}, g.vocab, rng)
	case title.StrategyConnector:
		connector := cfg.Connector
		if connector == "" {
			connector = g.vocab.Connectors[rng.IntN(len(g.vocab.Connectors))]
		}
		rec.Title = title.Connect(cfg.Subject, connector, cfg.Keywords, rng)
	case title.StrategyExternal:
		if err := aiSem.Acquire(ctx, 1); err != nil {
			return rowResult{}, false
		}
		res := g.requester.Request(ctx, cfg.Subject, cfg.Keywords, cfg.AIShape, cfg.Tier, rng)
		aiSem.Release(1)

		if !res.OK() {
			if ctx.Err() != nil {
				return rowResult{}, false
			}
			g.logger.Warn().Err(res.Err).Str("filename", rec.Filename).Msg("AI title failed")
			row.aiFailed = true
		}
		rec.Title = res.Display()
	}

	g.logger.Debug().Str("filename", rec.Filename).Str("title", rec.Title).Msg("row generated")

	row.record = rec
	row.done = true
	return row, true
}
