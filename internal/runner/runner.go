package runner

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"igextract/pkg/export"
	"igextract/pkg/logger"
	"igextract/pkg/session"
)

// Exporter persists one finished extraction. *export.Writer satisfies it.
type Exporter interface {
	Export(result *session.ExtractionResult) (export.Stats, error)
}

// Outcome pairs one request with what running it produced. Result can be
// non-nil alongside Err: an aborted run still carries its partial records.
type Outcome struct {
	Request session.ExtractionRequest
	Result  *session.ExtractionResult
	Stats   export.Stats
	Err     error
}

// Runner executes extraction requests as independent sessions, at most
// Concurrency at a time. Each session gets its own rate limiter, proxy
// binding and cookie jar from session.New; nothing mutable is shared
// between them.
type Runner struct {
	opts     session.Options
	exporter Exporter
	log      logger.Logger

	concurrency int

	// runSession is swapped by tests to avoid real fetches.
	runSession func(ctx context.Context, req session.ExtractionRequest, opts session.Options) (*session.ExtractionResult, error)
}

// New builds a runner. concurrency values below 1 run sessions one at a
// time.
func New(concurrency int, opts session.Options, exporter Exporter, log logger.Logger) *Runner {
	if concurrency < 1 {
		concurrency = 1
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Runner{
		opts:        opts,
		exporter:    exporter,
		log:         log,
		concurrency: concurrency,
		runSession:  session.Run,
	}
}

// Run executes every request and returns an outcome per request, in
// request order. A failed target does not stop its siblings; only context
// cancellation cuts the batch short. The returned error is the context's,
// never a per-target one.
func (r *Runner) Run(ctx context.Context, requests []session.ExtractionRequest) ([]Outcome, error) {
	outcomes := make([]Outcome, len(requests))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	var mu sync.Mutex
	for i, req := range requests {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				mu.Lock()
				outcomes[i] = Outcome{Request: req, Err: err}
				mu.Unlock()
				return nil
			}

			outcome := r.runOne(ctx, req)

			mu.Lock()
			outcomes[i] = outcome
			mu.Unlock()

			// Cancellation is the only error that should fan out.
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return nil
		})
	}

	err := g.Wait()
	return outcomes, err
}

func (r *Runner) runOne(ctx context.Context, req session.ExtractionRequest) Outcome {
	outcome := Outcome{Request: req}

	result, err := r.runSession(ctx, req, r.opts)
	outcome.Result = result
	outcome.Err = err
	if err != nil {
		r.log.WithError(err).WithField("target", req.Ref()).Error("extraction failed")
	}

	// Partial results are worth keeping; export whatever came back.
	if result != nil && r.exporter != nil {
		stats, exportErr := r.exporter.Export(result)
		outcome.Stats = stats
		if exportErr != nil {
			r.log.WithError(exportErr).WithField("target", req.Ref()).Error("export failed")
			if outcome.Err == nil {
				outcome.Err = exportErr
			}
		}
	}

	return outcome
}
