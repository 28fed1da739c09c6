package report

import (
	"sort"
)

// Aggregator collects per-file results and produces the final report.
// Files and entries may arrive in any order; Finalize sorts them.
type Aggregator struct {
	thresholds Thresholds
	files      []File
}

// NewAggregator returns an aggregator checking against thresholds.
func NewAggregator(thresholds Thresholds) *Aggregator {
	return &Aggregator{thresholds: thresholds}
}

// AddFile records the outcome of one source file.
func (a *Aggregator) AddFile(file File) {
	file.Functions = 0
	file.Errors = 0
	for _, e := range file.Entries {
		if e.Kind == KindFunction {
			file.Functions++
		} else {
			file.Errors++
		}
	}
	a.files = append(a.files, file)
}

// Finalize sorts everything into stable order, derives the summary, and
// checks thresholds.
func (a *Aggregator) Finalize() *Report {
	files := make([]File, len(a.files))
	copy(files, a.files)
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	for i := range files {
		entries := files[i].Entries
		sort.Slice(entries, func(x, y int) bool { return entries[x].Index < entries[y].Index })
	}

	rep := &Report{Files: files}
	rep.Summary = a.summarize(files)
	rep.Violations = a.checkThresholds(files)
	return rep
}

func (a *Aggregator) summarize(files []File) Summary {
	s := Summary{Files: len(files)}
	for _, f := range files {
		s.Errors += f.Errors
		if f.ReadError != "" {
			s.Errors++
		}
		s.Anomalies += len(f.Anomalies)
		for _, e := range f.Entries {
			if e.Kind != KindFunction || e.Metrics == nil {
				continue
			}
			s.Functions++
			s.TotalComplexity += e.Metrics.Cyclomatic
			if e.Metrics.Cyclomatic > s.MaxComplexity {
				s.MaxComplexity = e.Metrics.Cyclomatic
				s.MaxFunction = e.Metrics.Name
			}
			if e.Metrics.Recursive {
				s.Recursive++
			}
			s.Unreachable += len(e.Metrics.Unreachable)
		}
	}
	if s.Functions > 0 {
		s.AverageComplexity = float64(s.TotalComplexity) / float64(s.Functions)
	}
	s.Assessment = assessment(s.AverageComplexity)
	return s
}

func (a *Aggregator) checkThresholds(files []File) []Violation {
	var out []Violation
	for _, f := range files {
		for _, e := range f.Entries {
			if e.Kind != KindFunction || e.Metrics == nil {
				continue
			}
			if a.thresholds.MaxComplexity > 0 && e.Metrics.Cyclomatic > a.thresholds.MaxComplexity {
				out = append(out, Violation{
					Rule:     "cyclomatic_complexity",
					File:     f.Path,
					Function: e.Metrics.Name,
					Value:    e.Metrics.Cyclomatic,
					Limit:    a.thresholds.MaxComplexity,
				})
			}
			if a.thresholds.MaxNestingDepth > 0 && e.Metrics.MaxNestingDepth > a.thresholds.MaxNestingDepth {
				out = append(out, Violation{
					Rule:     "max_nesting_depth",
					File:     f.Path,
					Function: e.Metrics.Name,
					Value:    e.Metrics.MaxNestingDepth,
					Limit:    a.thresholds.MaxNestingDepth,
				})
			}
		}
	}
	return out
}
