package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/compvault/compvault/internal/detector"
	"github.com/compvault/compvault/internal/document"
	"github.com/compvault/compvault/internal/preview"
	"github.com/compvault/compvault/internal/types"
	"github.com/compvault/compvault/internal/watcher"
)

var (
	renderOutput    string
	renderFramework string
	renderDevice    string
	renderZoom      float64
)

var renderCmd = &cobra.Command{
	Use:   "render <files...>",
	Short: "Render component sources to a preview document",
	Long: `Build a self-contained preview document from the given sources and
write it to stdout or a file. Rendering never fails: inputs the pipeline
cannot execute produce an explanatory panel document instead.

Examples:
  compvault render App.tsx app.module.css
  compvault render App.vue -o preview.html
  compvault render index.html styles.css --device "iPhone SE"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "Write the document to a file instead of stdout")
	renderCmd.Flags().StringVar(&renderFramework, "framework", "", "Pin the framework (react, vue, html) instead of auto-detecting")
	renderCmd.Flags().StringVar(&renderDevice, "device", "", "Simulate a device viewport (see 'compvault devices')")
	renderCmd.Flags().Float64Var(&renderZoom, "zoom", 1.0, "Zoom factor for fixed devices")
}

func runRender(cmd *cobra.Command, args []string) error {
	files := watcher.ReadSources(args)
	if len(files) == 0 {
		return fmt.Errorf("no renderable sources among %v", args)
	}

	fw := types.Framework(renderFramework)
	if fw == "" {
		fw = detector.DetectAll(files)
	}

	opts := document.Options{Zoom: renderZoom, Responsive: true}
	if renderDevice != "" {
		d, ok := preview.DeviceByName(renderDevice)
		if !ok {
			return fmt.Errorf("unknown device %q", renderDevice)
		}
		opts = document.Options{
			ViewportWidth:  d.Width,
			ViewportHeight: d.Height,
			Zoom:           renderZoom,
		}
	}

	html := document.BuildDocument(files, fw, opts)

	if renderOutput != "" {
		if err := os.WriteFile(renderOutput, []byte(html), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", renderOutput, err)
		}
		fmt.Fprintf(os.Stderr, "Wrote %d bytes to %s (%s)\n", len(html), renderOutput, fw)
		return nil
	}

	fmt.Print(html)
	return nil
}
