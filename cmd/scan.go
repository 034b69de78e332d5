package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/compvault/compvault/internal/registry"
	"github.com/compvault/compvault/internal/scanner"
)

var scanFormat string

type scanReport struct {
	File     string   `json:"file" yaml:"file"`
	Imports  []string `json:"imports" yaml:"imports"`
	Packages []string `json:"packages" yaml:"packages"`
	Install  string   `json:"install,omitempty" yaml:"install,omitempty"`
}

var scanCmd = &cobra.Command{
	Use:   "scan <files...>",
	Short: "List import specifiers and external packages",
	Long: `Scan component sources for import specifiers and report which external
packages a preview would pull from the CDN, plus the npm install line for
working on the component locally.

Examples:
  compvault scan App.tsx
  compvault scan src/*.tsx -f json
  compvault scan App.vue -f yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringVarP(&scanFormat, "format", "f", "text", "Output format (text, json, yaml)")
}

func runScan(cmd *cobra.Command, args []string) error {
	reports := make([]scanReport, 0, len(args))
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		imports := scanner.ScanImports(string(data))
		packages := registry.ExternalPackages(imports)
		reports = append(reports, scanReport{
			File:     path,
			Imports:  imports,
			Packages: packages,
			Install:  registry.InstallCommand(packages),
		})
	}

	switch scanFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	case "yaml":
		return yaml.NewEncoder(os.Stdout).Encode(reports)
	case "text":
		for _, r := range reports {
			fmt.Printf("%s\n", r.File)
			for _, imp := range r.Imports {
				fmt.Printf("  import %s\n", imp)
			}
			if len(r.Packages) > 0 {
				fmt.Printf("  external: %v\n", r.Packages)
				fmt.Printf("  %s\n", r.Install)
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported format: %s (supported: text, json, yaml)", scanFormat)
	}
}
