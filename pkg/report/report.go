// Package report assembles per-function results into file and run level
// reports, applies thresholds, and keeps output order stable regardless
// of how many workers produced the results.
package report

import (
	"fmt"

	"github.com/l3aro/go-complexity/pkg/metrics"
	"github.com/l3aro/go-complexity/pkg/token"
)

// Kind classifies an entry.
type Kind string

const (
	KindFunction   Kind = "function"               // measured successfully
	KindExtraction Kind = "extraction_error"       // fragment never became a function
	KindMalformed  Kind = "malformed_control_flow" // body could not be graphed
	KindInvariant  Kind = "invariant_violation"    // graph failed validation
)

// Entry is the outcome for one discovered fragment. Index preserves
// discovery order within its file; exactly one of Metrics or Error is
// set depending on Kind.
type Entry struct {
	Index    int              `json:"index"`
	Kind     Kind             `json:"kind"`
	Function string           `json:"function,omitempty"`
	Line     int              `json:"line,omitempty"`
	Metrics  *metrics.Metrics `json:"metrics,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// File groups the entries and tokenizer anomalies of one source file.
// ReadError is set when the file itself could not be read, in which
// case it has no entries.
type File struct {
	Path      string          `json:"path"`
	Entries   []Entry         `json:"entries"`
	Anomalies []token.Anomaly `json:"anomalies,omitempty"`
	ReadError string          `json:"read_error,omitempty"`
	Functions int             `json:"functions"`
	Errors    int             `json:"errors"`
}

// Report is the full result of one run.
type Report struct {
	Files      []File      `json:"files"`
	Summary    Summary     `json:"summary"`
	Violations []Violation `json:"violations,omitempty"`
}

// Summary carries the run totals and derived figures.
type Summary struct {
	Files             int     `json:"total_files"`
	Functions         int     `json:"total_functions"`
	Errors            int     `json:"total_errors"`
	Anomalies         int     `json:"total_anomalies"`
	TotalComplexity   int     `json:"total_complexity"`
	AverageComplexity float64 `json:"average_complexity"`
	MaxComplexity     int     `json:"max_complexity"`
	MaxFunction       string  `json:"max_complexity_function,omitempty"`
	Recursive         int     `json:"recursive_functions"`
	Unreachable       int     `json:"unreachable_blocks"`
	Assessment        string  `json:"assessment"`
}

// Thresholds are the limits a run is checked against. Zero means
// unlimited for that metric.
type Thresholds struct {
	MaxComplexity   int `json:"max_complexity" yaml:"max_complexity"`
	MaxNestingDepth int `json:"max_nesting_depth" yaml:"max_nesting_depth"`
}

// DefaultThresholds returns the conventional limits.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxComplexity:   10,
		MaxNestingDepth: 4,
	}
}

// Violation records one function exceeding a threshold.
type Violation struct {
	Rule     string `json:"rule"`
	File     string `json:"file"`
	Function string `json:"function"`
	Value    int    `json:"value"`
	Limit    int    `json:"limit"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s %s is %d (limit %d)", v.File, v.Function, v.Rule, v.Value, v.Limit)
}

// assessment maps the average complexity to a verdict line.
func assessment(avg float64) string {
	switch {
	case avg == 0:
		return "no functions measured"
	case avg <= 2.0:
		return "simple, functions are easy to follow"
	case avg <= 5.0:
		return "moderate, a few functions carry most of the branching"
	case avg <= 10.0:
		return "complex, consider splitting the densest functions"
	default:
		return "very complex, refactoring is overdue"
	}
}
