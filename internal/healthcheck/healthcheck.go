// Package healthcheck inspects the local gcx installation: which config file
// is in effect, whether the report cache is usable, and whether the analysis
// pipeline produces the expected numbers for a known input.
package healthcheck

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/l3aro/go-complexity/internal/config"
	"github.com/l3aro/go-complexity/pkg/analyzer"
	"github.com/l3aro/go-complexity/pkg/metrics"
	"github.com/l3aro/go-complexity/pkg/report"
)

// CheckStatus represents the outcome of a single diagnostic check.
type CheckStatus struct {
	Name   string // "config", "cache", "pipeline"
	Status string // "ok", "warning", "error"
	Detail string
	Error  string
}

// Result contains the full health check output for display.
type Result struct {
	SavedPath      string
	SavedScope     string // "global" or "project"
	EffectivePath  string
	EffectiveScope string // "global" or "project"
	Checks         []CheckStatus
}

// Healthy reports whether no check ended in an error.
func (r *Result) Healthy() bool {
	for _, c := range r.Checks {
		if c.Status == "error" {
			return false
		}
	}
	return true
}

// Check performs a health check against the given config.
// savedPath is where the user saved config (may be empty outside init).
// effectivePath is the config file actually in use (considering priority).
func Check(cfg *config.Config, savedPath string, effectivePath string) (*Result, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	result := &Result{
		SavedPath:      savedPath,
		SavedScope:     scopeFromPath(savedPath),
		EffectivePath:  effectivePath,
		EffectiveScope: scopeFromPath(effectivePath),
	}

	result.Checks = []CheckStatus{
		checkConfig(cfg),
		checkCache(cfg),
		checkPipeline(cfg),
	}

	return result, nil
}

// scopeFromPath determines "global" or "project" scope from a config file path.
// Returns empty string if path is empty.
func scopeFromPath(path string) string {
	if path == "" {
		return ""
	}

	home, err := os.UserHomeDir()
	if err == nil {
		globalDir := filepath.Join(home, ".gcx")
		if strings.HasPrefix(path, globalDir) {
			return "global"
		}
	}

	return "project"
}

// checkConfig verifies the loaded configuration is internally consistent.
func checkConfig(cfg *config.Config) CheckStatus {
	status := CheckStatus{Name: "config"}

	if err := cfg.Validate(); err != nil {
		status.Status = "error"
		status.Error = err.Error()
		return status
	}

	status.Status = "ok"
	status.Detail = fmt.Sprintf("%d extensions, complexity limit %d, nesting limit %d",
		len(cfg.Extensions), cfg.MaxComplexity, cfg.MaxNestingDepth)
	return status
}

// checkCache verifies the report cache directory is usable.
// It does NOT create the directory; that happens on first analysis.
func checkCache(cfg *config.Config) CheckStatus {
	status := CheckStatus{Name: "cache"}

	if !cfg.CacheEnabled {
		status.Status = "ok"
		status.Detail = "disabled"
		return status
	}

	dir := cfg.EffectiveCacheDir()
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		status.Status = "ok"
		status.Detail = fmt.Sprintf("will be created at %s", dir)
		return status
	}
	if err != nil {
		status.Status = "error"
		status.Error = fmt.Sprintf("cannot stat %s: %v", dir, err)
		return status
	}
	if !info.IsDir() {
		status.Status = "error"
		status.Error = fmt.Sprintf("%s exists but is not a directory", dir)
		return status
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		status.Status = "warning"
		status.Detail = fmt.Sprintf("cannot list %s: %v", dir, err)
		return status
	}

	status.Status = "ok"
	status.Detail = fmt.Sprintf("%d entries at %s", len(entries), dir)
	return status
}

// probeSource is a known input with cyclomatic complexity 2.
const probeSource = `int probe(int x) {
    if (x > 0) {
        return 1;
    }
    return 0;
}
`

// checkPipeline runs the full analysis pipeline on the probe source and
// verifies the score. A wrong number here means the installation is broken,
// not the code under analysis.
func checkPipeline(cfg *config.Config) CheckStatus {
	status := CheckStatus{Name: "pipeline"}

	a := analyzer.New(analyzer.Options{
		Jobs:    1,
		Metrics: metrics.Options{CountShortCircuit: cfg.CountShortCircuit},
	})

	file, err := a.AnalyzeSource(context.Background(), "probe.c", probeSource)
	if err != nil {
		status.Status = "error"
		status.Error = fmt.Sprintf("analysis failed: %v", err)
		return status
	}

	var m *metrics.Metrics
	for _, entry := range file.Entries {
		if entry.Kind == report.KindFunction && entry.Function == "probe" {
			m = entry.Metrics
		}
	}
	if m == nil {
		status.Status = "error"
		status.Error = "probe function was not analyzed"
		return status
	}
	if m.Cyclomatic != 2 {
		status.Status = "error"
		status.Error = fmt.Sprintf("probe scored complexity %d, expected 2", m.Cyclomatic)
		return status
	}

	status.Status = "ok"
	status.Detail = "probe function scored complexity 2"
	return status
}
