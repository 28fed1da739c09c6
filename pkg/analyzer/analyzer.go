// Package analyzer runs the full pipeline over source files: tokenize,
// extract functions, build control flow graphs, and compute metrics.
// Functions are measured by a bounded pool of workers; every result
// carries its discovery index so reports come out in source order no
// matter which worker finished first.
package analyzer

import (
	"context"
	"errors"
	"os"
	"runtime"
	"sync"

	"github.com/l3aro/go-complexity/internal/log"
	"github.com/l3aro/go-complexity/pkg/cfg"
	"github.com/l3aro/go-complexity/pkg/function"
	"github.com/l3aro/go-complexity/pkg/metrics"
	"github.com/l3aro/go-complexity/pkg/report"
	"github.com/l3aro/go-complexity/pkg/token"
)

// Options configure a run.
type Options struct {
	// Jobs caps the number of functions measured concurrently.
	// Zero means one worker per CPU.
	Jobs int

	// Metrics is passed through to the calculator.
	Metrics metrics.Options

	// Thresholds are applied when the report is assembled.
	Thresholds report.Thresholds
}

// Analyzer coordinates the pipeline stages.
type Analyzer struct {
	opts   Options
	logger log.Logger
}

// New returns an analyzer ready to run.
func New(opts Options) *Analyzer {
	if opts.Jobs <= 0 {
		opts.Jobs = runtime.NumCPU()
	}
	return &Analyzer{
		opts:   opts,
		logger: log.Default(),
	}
}

// SetLogger replaces the default logger.
func (a *Analyzer) SetLogger(logger log.Logger) {
	a.logger = logger
}

// Run analyzes every path and assembles the final report. Unreadable
// files are recorded and skipped; only cancellation aborts the run.
func (a *Analyzer) Run(ctx context.Context, paths []string) (*report.Report, error) {
	agg := report.NewAggregator(a.opts.Thresholds)
	for _, path := range paths {
		file, err := a.AnalyzeFile(ctx, path)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			a.logger.Warn("skipping unreadable file", "path", path, "error", err)
			agg.AddFile(report.File{Path: path, ReadError: err.Error()})
			continue
		}
		agg.AddFile(file)
	}
	return agg.Finalize(), nil
}

// AnalyzeFile reads one file and analyzes its contents.
func (a *Analyzer) AnalyzeFile(ctx context.Context, path string) (report.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return report.File{}, err
	}
	return a.AnalyzeSource(ctx, path, string(data))
}

// AnalyzeSource analyzes one source text. Lexical anomalies and
// per-function failures land in the returned file; the error is only
// ever the context's.
func (a *Analyzer) AnalyzeSource(ctx context.Context, path, src string) (report.File, error) {
	toks, anomalies := token.Tokenize(src)
	units, extErrs := function.Extract(src, toks)

	if len(anomalies) > 0 {
		a.logger.Debug("tokenizer anomalies", "path", path, "count", len(anomalies))
	}

	results := make([]report.Entry, len(units))

	var wg sync.WaitGroup
	sem := make(chan struct{}, a.opts.Jobs)
	for i := range units {
		wg.Add(1)
		go func(i int) {
			sem <- struct{}{}
			defer wg.Done()
			defer func() { <-sem }()

			select {
			case <-ctx.Done():
				return
			default:
			}

			results[i] = a.analyzeUnit(&units[i])
		}(i)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return report.File{}, err
	}

	entries := make([]report.Entry, 0, len(units)+len(extErrs))
	entries = append(entries, results...)
	for _, e := range extErrs {
		entries = append(entries, report.Entry{
			Index:    e.Index,
			Kind:     report.KindExtraction,
			Function: e.Name,
			Line:     e.Line,
			Error:    e.Reason,
		})
	}

	return report.File{
		Path:      path,
		Entries:   entries,
		Anomalies: anomalies,
	}, nil
}

// analyzeUnit measures one function, folding failures into the entry.
func (a *Analyzer) analyzeUnit(u *function.Unit) report.Entry {
	g, err := cfg.Build(u)
	if err != nil {
		line := u.StartLine
		var mErr *cfg.MalformedError
		if errors.As(err, &mErr) {
			line = mErr.Line
		}
		a.logger.Debug("control flow construction failed", "function", u.Qualified, "error", err)
		return report.Entry{
			Index:    u.Index,
			Kind:     report.KindMalformed,
			Function: u.Qualified,
			Line:     line,
			Error:    err.Error(),
		}
	}

	m, err := metrics.Compute(g, a.opts.Metrics)
	if err != nil {
		a.logger.Debug("metrics rejected graph", "function", u.Qualified, "error", err)
		return report.Entry{
			Index:    u.Index,
			Kind:     report.KindInvariant,
			Function: u.Qualified,
			Line:     u.StartLine,
			Error:    err.Error(),
		}
	}

	return report.Entry{
		Index:    u.Index,
		Kind:     report.KindFunction,
		Function: u.Qualified,
		Line:     u.StartLine,
		Metrics:  m,
	}
}

// Graphs builds the control flow graph of every extractable function
// in src, for callers that want the graphs rather than the metrics.
// The second list carries per-function failures.
func (a *Analyzer) Graphs(src string) ([]*cfg.Graph, []error) {
	toks, _ := token.Tokenize(src)
	units, extErrs := function.Extract(src, toks)

	var graphs []*cfg.Graph
	var errs []error
	for _, e := range extErrs {
		errs = append(errs, e)
	}
	for i := range units {
		g, err := cfg.Build(&units[i])
		if err != nil {
			errs = append(errs, err)
			continue
		}
		graphs = append(graphs, g)
	}
	return graphs, errs
}
