package commands

import (
	"fmt"
	"os"

	"github.com/l3aro/go-complexity/internal/config"
	"github.com/l3aro/go-complexity/internal/healthcheck"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration, cache, and the analysis pipeline",
	Long: `Loads the effective configuration, verifies the cache directory is
usable, and runs the analysis pipeline against a known probe source.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, configPath, err := loadConfigWithPath()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		result, err := healthcheck.Check(cfg, "", configPath)
		if err != nil {
			return fmt.Errorf("health check failed: %w", err)
		}

		displayDoctorResult(result)

		if !result.Healthy() {
			return fmt.Errorf("health check failed: one or more checks did not pass")
		}

		return nil
	},
}

// loadConfigWithPath loads the effective config along with the path it
// came from. Without any config file the built-in defaults are used and
// the returned path is empty.
func loadConfigWithPath() (*config.Config, string, error) {
	projectConfigPath := ".gcx/config.yaml"
	globalConfigPath := config.GlobalPath()

	var effectivePath string
	if fileExists(projectConfigPath) {
		effectivePath = projectConfigPath
	} else if fileExists(globalConfigPath) {
		effectivePath = globalConfigPath
	}

	if effectivePath == "" {
		cfg, err := config.Load()
		if err != nil {
			return nil, "", err
		}
		return cfg, "", nil
	}

	cfg, err := config.LoadFromFile(effectivePath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config from %s: %w", effectivePath, err)
	}

	return cfg, effectivePath, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

func displayDoctorResult(result *healthcheck.Result) {
	if result.EffectivePath == "" {
		fmt.Println("Using config: built-in defaults")
	} else {
		fmt.Printf("Using config: %s (%s)\n", result.EffectivePath, result.EffectiveScope)
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
}

func formatStatusIcon(status string) string {
	switch status {
	case "ok":
		return "✓"
	case "warning":
		return "!"
	case "error":
		return "✗"
	default:
		return "?"
	}
}

func init() {
	RootCmd.AddCommand(doctorCmd)
}
