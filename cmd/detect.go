package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/compvault/compvault/internal/detector"
	"github.com/compvault/compvault/internal/types"
	"github.com/compvault/compvault/internal/watcher"
)

var detectFormat string

type detectReport struct {
	Files     map[string]string `json:"files" yaml:"files"`
	Aggregate string            `json:"aggregate" yaml:"aggregate"`
}

var detectCmd = &cobra.Command{
	Use:   "detect <files...>",
	Short: "Classify component sources by framework",
	Long: `Detect the framework of each source file and the aggregate framework
the preview pipeline would choose for the whole set.

Examples:
  compvault detect App.tsx styles.css
  compvault detect src/*.vue -f json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDetect,
}

func init() {
	rootCmd.AddCommand(detectCmd)
	detectCmd.Flags().StringVarP(&detectFormat, "format", "f", "text", "Output format (text, json, yaml)")
}

// displayName renders a framework identifier for human output.
func displayName(fw types.Framework) string {
	switch fw {
	case types.FrameworkNext:
		return "Next.js"
	case types.FrameworkHTML:
		return "HTML"
	case types.FrameworkCSS:
		return "CSS"
	case types.FrameworkJS:
		return "JavaScript"
	default:
		return cases.Title(language.English).String(string(fw))
	}
}

func runDetect(cmd *cobra.Command, args []string) error {
	files := watcher.ReadSources(args)
	if len(files) == 0 {
		return fmt.Errorf("no recognizable sources among %v", args)
	}

	report := detectReport{Files: make(map[string]string, len(files))}
	for _, f := range files {
		report.Files[f.Filename] = string(detector.Detect(f.Code, f.Filename))
	}
	report.Aggregate = string(detector.DetectAll(files))

	switch detectFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "yaml":
		return yaml.NewEncoder(os.Stdout).Encode(report)
	case "text":
		for _, f := range files {
			fw := detector.Detect(f.Code, f.Filename)
			fmt.Printf("%-30s %s\n", f.Filename, displayName(fw))
		}
		fmt.Printf("aggregate: %s\n", displayName(types.Framework(report.Aggregate)))
		return nil
	default:
		return fmt.Errorf("unsupported format: %s (supported: text, json, yaml)", detectFormat)
	}
}
