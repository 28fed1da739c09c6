package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/l3aro/go-complexity/internal/config"
	"github.com/l3aro/go-complexity/internal/healthcheck"
	"github.com/spf13/cobra"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file interactively",
	Long: `Guides you through setting up go-complexity step by step.
Creates a config file with thresholds, extensions, and cache settings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit()
	},
}

// validateLimit accepts a non-negative integer; zero disables a limit.
func validateLimit(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("enter a whole number")
	}
	if n < 0 {
		return fmt.Errorf("enter zero or a positive number")
	}
	return nil
}

func runInit() error {
	// === SECTION 1: Thresholds ===
	maxComplexity := "10"
	maxNesting := "4"

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Complexity limit").
				Description("Functions above this cyclomatic complexity are flagged (0 disables)").
				Placeholder("10").
				Validate(validateLimit).
				Value(&maxComplexity),
			huh.NewInput().
				Title("Nesting depth limit").
				Description("Functions nesting deeper than this are flagged (0 disables)").
				Placeholder("4").
				Validate(validateLimit).
				Value(&maxNesting),
		),
	)
	err := form.Run()
	if err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	var countShortCircuit bool
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Count short-circuit operators?").
				Description("Each && and || in a branch condition adds one complexity point").
				Affirmative("Yes, count them").
				Negative("No, branches only").
				Value(&countShortCircuit),
		),
	)
	err = form.Run()
	if err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	// === SECTION 2: Files ===
	extensions := strings.Join(config.DefaultConfig().Extensions, ",")
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Source extensions").
				Description("Comma separated list of file extensions to analyze").
				Placeholder(extensions).
				Value(&extensions),
		),
	)
	err = form.Run()
	if err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	cacheEnabled := true
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Enable the result cache?").
				Description("Unchanged files are served from cache on repeat runs").
				Affirmative("Yes, cache results").
				Negative("No, always recompute").
				Value(&cacheEnabled),
		),
	)
	err = form.Run()
	if err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	// === SECTION 3: Config Location ===
	var saveLocationChoice string
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Save Configuration").
				Description("Where to save the configuration file?").
				Options(
					huh.NewOption("Global (~/.gcx/config.yaml)", "global"),
					huh.NewOption("Project (./.gcx/config.yaml)", "project"),
				).
				Value(&saveLocationChoice),
		),
	)
	err = form.Run()
	if err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	var configPath string
	if saveLocationChoice == "global" {
		configPath = config.GlobalPath()
	} else {
		configPath = ".gcx/config.yaml"
	}

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		var overwrite bool
		form = huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Config file exists").
					Description(fmt.Sprintf("Overwrite existing config at %s?", configPath)).
					Affirmative("Overwrite").
					Negative("Cancel").
					Value(&overwrite),
			),
		)
		err = form.Run()
		if err != nil {
			return fmt.Errorf("interactive prompt failed: %w", err)
		}
		if !overwrite {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	// === Build config struct ===
	cfg := config.DefaultConfig()
	cfg.MaxComplexity, _ = strconv.Atoi(strings.TrimSpace(maxComplexity))
	cfg.MaxNestingDepth, _ = strconv.Atoi(strings.TrimSpace(maxNesting))
	cfg.CountShortCircuit = countShortCircuit
	cfg.Extensions = config.SplitExtensions(extensions)
	cfg.CacheEnabled = cacheEnabled

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	// Show config preview
	fmt.Println("\n=== Configuration Preview ===")
	fmt.Printf("Config path: %s\n", configPath)
	fmt.Printf("Complexity limit: %d\n", cfg.MaxComplexity)
	fmt.Printf("Nesting depth limit: %d\n", cfg.MaxNestingDepth)
	fmt.Printf("Short-circuit counting: %t\n", cfg.CountShortCircuit)
	fmt.Printf("Extensions: %s\n", strings.Join(cfg.Extensions, ", "))
	fmt.Printf("Cache enabled: %t\n", cfg.CacheEnabled)
	fmt.Println("=============================")

	// Save config
	if err := cfg.Save(configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Printf("Configuration saved to: %s\n", configPath)

	// === SECTION 4: Health Check ===
	fmt.Println("\n=== Running Health Check ===")

	loadedCfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("loading saved config: %w", err)
	}

	result, err := healthcheck.Check(loadedCfg, configPath, configPath)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	fmt.Printf("\nConfig Scope: %s\n", result.SavedScope)
	if result.SavedScope == "global" {
		fmt.Printf("Config Path: %s\n", configPath)
	} else {
		absPath, _ := filepath.Abs(configPath)
		fmt.Printf("Config Path: %s\n", absPath)
	}
	fmt.Println()

	for _, check := range result.Checks {
		line := check.Detail
		if line == "" {
			line = check.Status
		}
		fmt.Printf("%s %s: %s\n", formatStatusIcon(check.Status), check.Name, line)
		if check.Error != "" {
			fmt.Printf("    %s\n", check.Error)
		}
	}

	fmt.Println("\n=== Initialization Complete ===")
	return nil
}

func init() {
	RootCmd.AddCommand(initCmd)
}
