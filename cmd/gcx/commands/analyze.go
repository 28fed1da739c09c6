// Package commands provides the CLI commands for the go-complexity tool.
package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/l3aro/go-complexity/internal/config"
	"github.com/l3aro/go-complexity/internal/log"
	"github.com/l3aro/go-complexity/internal/scanner"
	"github.com/l3aro/go-complexity/pkg/analyzer"
	"github.com/l3aro/go-complexity/pkg/cache"
	"github.com/l3aro/go-complexity/pkg/dirty"
	"github.com/l3aro/go-complexity/pkg/metrics"
	"github.com/l3aro/go-complexity/pkg/report"
	"github.com/spf13/cobra"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [path]",
	Short: "Analyze a file or directory and report complexity",
	Long: `Runs the full pipeline over the given path: tokenize, extract
functions, build control flow graphs, and compute cyclomatic complexity.
Directories are scanned recursively, honoring .gcxignore files.`,
	Args:         cobra.RangeArgs(0, 1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "."
		if len(args) > 0 {
			path = args[0]
		}
		return runAnalyze(path, cmd)
	},
}

func runAnalyze(path string, cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if cfg.Verbose {
		log.Default().SetLevel(log.DebugLevel)
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	changedOnly, _ := cmd.Flags().GetBool("changed")
	noCache, _ := cmd.Flags().GetBool("no-cache")
	failOnViolation, _ := cmd.Flags().GetBool("fail-on-violation")

	if cmd.Flags().Changed("jobs") {
		cfg.Jobs, _ = cmd.Flags().GetInt("jobs")
	}
	if cmd.Flags().Changed("short-circuit") {
		cfg.CountShortCircuit, _ = cmd.Flags().GetBool("short-circuit")
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("getting absolute path: %w", err)
	}

	files, err := collectFiles(absPath, cfg)
	if err != nil {
		return err
	}
	log.Default().Debug("collected files", "path", absPath, "count", len(files))

	// With --changed, keep only files whose content hash moved since the
	// last run. Files that fail to hash stay in: the analysis pass will
	// record the read error.
	var tracker *dirty.Tracker
	if changedOnly {
		tracker, err = dirty.NewFromCache(dirty.WithCacheDir(cfg.EffectiveCacheDir()))
		if err != nil {
			return fmt.Errorf("loading change tracker: %w", err)
		}
		var changed []string
		for _, f := range files {
			moved, err := tracker.CheckAndMark(f)
			if err != nil || moved {
				changed = append(changed, f)
			}
		}
		if len(changed) == 0 {
			if err := tracker.Save(); err != nil {
				log.Default().Warn("failed to save change tracker", "error", err)
			}
			fmt.Println("No files changed since the last run.")
			return nil
		}
		files = changed
	}

	var store *cache.Store
	if cfg.CacheEnabled && !noCache {
		store, err = cache.OpenStore(cfg.EffectiveCacheDir(), cfg.CacheMaxEntries)
		if err != nil {
			log.Default().Warn("result cache unavailable", "error", err)
			store = nil
		}
	}

	mopts := metrics.Options{CountShortCircuit: cfg.CountShortCircuit}
	thresholds := report.Thresholds{
		MaxComplexity:   cfg.MaxComplexity,
		MaxNestingDepth: cfg.MaxNestingDepth,
	}
	a := analyzer.New(analyzer.Options{Jobs: cfg.Jobs, Metrics: mopts, Thresholds: thresholds})

	var spinner *log.ProgressSpinner
	if !jsonOutput && len(files) > 1 {
		spinner = log.NewProgressSpinner(fmt.Sprintf("Analyzing %d files", len(files)))
		spinner.Start()
	}

	ctx := cmd.Context()
	var rep *report.Report
	if store == nil {
		rep, err = a.Run(ctx, files)
		if err != nil {
			if spinner != nil {
				spinner.Stop()
			}
			return err
		}
	} else {
		fingerprint := cache.Fingerprint(mopts)
		agg := report.NewAggregator(thresholds)
		hits := 0
		for _, p := range files {
			data, err := os.ReadFile(p)
			if err != nil {
				agg.AddFile(report.File{Path: p, ReadError: err.Error()})
				continue
			}
			digest := cache.Digest(data)
			if file, ok := store.Lookup(p, digest, fingerprint); ok {
				agg.AddFile(file)
				hits++
				continue
			}
			file, err := a.AnalyzeSource(ctx, p, string(data))
			if err != nil {
				if spinner != nil {
					spinner.Stop()
				}
				return err
			}
			store.Set(p, digest, fingerprint, file)
			agg.AddFile(file)
		}
		rep = agg.Finalize()
		log.Default().Debug("cache lookups", "hits", hits, "misses", len(files)-hits)

		if err := store.Flush(); err != nil {
			log.Default().Warn("failed to persist result cache", "error", err)
		}
	}

	if spinner != nil {
		spinner.Stop()
	}

	if tracker != nil {
		tracker.ClearDirty(files)
		if err := tracker.Save(); err != nil {
			log.Default().Warn("failed to save change tracker", "error", err)
		}
	}

	if jsonOutput {
		data, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		fmt.Println(string(data))
	} else {
		printReport(absPath, rep)
	}

	if failOnViolation && len(rep.Violations) > 0 {
		return fmt.Errorf("%d threshold violation(s)", len(rep.Violations))
	}
	return nil
}

// collectFiles resolves the target path to the list of files to
// analyze. A file argument is analyzed as-is; a directory is scanned
// with the configured extensions and ignore file.
func collectFiles(absPath string, cfg *config.Config) ([]string, error) {
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat path: %w", err)
	}

	if !info.IsDir() {
		return []string{absPath}, nil
	}

	opts := scanner.DefaultOptions()
	opts.Extensions = cfg.Extensions
	opts.IgnoreFileName = cfg.IgnoreFile
	infos, err := scanner.ScanWithOptions(absPath, opts)
	if err != nil {
		return nil, fmt.Errorf("scanning directory: %w", err)
	}

	files := make([]string, 0, len(infos))
	for _, fi := range infos {
		files = append(files, fi.FullPath)
	}
	return files, nil
}

func printReport(root string, rep *report.Report) {
	fmt.Printf("=== Complexity Report: %s ===\n\n", root)

	for _, f := range rep.Files {
		if f.ReadError != "" {
			fmt.Printf("%s: read error: %s\n\n", f.Path, f.ReadError)
			continue
		}
		fmt.Printf("%s (%d functions)\n", f.Path, f.Functions)
		for _, e := range f.Entries {
			if e.Kind == report.KindFunction && e.Metrics != nil {
				marks := ""
				if e.Metrics.Recursive {
					marks += " recursive"
				}
				if len(e.Metrics.Unreachable) > 0 {
					marks += fmt.Sprintf(" unreachable=%d", len(e.Metrics.Unreachable))
				}
				fmt.Printf("  %-32s complexity %-3d depth %-2d line %d%s\n",
					e.Function, e.Metrics.Cyclomatic, e.Metrics.MaxNestingDepth, e.Line, marks)
			} else {
				name := e.Function
				if name == "" {
					name = "(unknown)"
				}
				fmt.Printf("  %-32s error at line %d: %s\n", name, e.Line, e.Error)
			}
		}
		for _, a := range f.Anomalies {
			fmt.Printf("  anomaly at line %d: %s\n", a.Line, a.Message)
		}
		fmt.Println()
	}

	s := rep.Summary
	fmt.Printf("Files: %d  Functions: %d  Errors: %d  Anomalies: %d\n",
		s.Files, s.Functions, s.Errors, s.Anomalies)
	if s.Functions > 0 {
		fmt.Printf("Average complexity: %.2f  Max: %d (%s)\n",
			s.AverageComplexity, s.MaxComplexity, s.MaxFunction)
	}
	fmt.Printf("Assessment: %s\n", s.Assessment)

	if len(rep.Violations) > 0 {
		fmt.Println("\nViolations:")
		for _, v := range rep.Violations {
			fmt.Printf("  %s\n", v)
		}
	}
}

func init() {
	analyzeCmd.Flags().BoolP("json", "j", false, "Output as JSON")
	analyzeCmd.Flags().Int("jobs", 0, "Number of concurrent workers (0 = one per CPU)")
	analyzeCmd.Flags().Bool("short-circuit", false, "Count && and || in branch conditions")
	analyzeCmd.Flags().Bool("changed", false, "Only analyze files changed since the last run")
	analyzeCmd.Flags().Bool("no-cache", false, "Bypass the result cache")
	analyzeCmd.Flags().Bool("fail-on-violation", false, "Exit non-zero when a threshold is exceeded")
}
