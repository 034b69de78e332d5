package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/compvault/compvault/internal/preview"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List simulated device viewports",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, d := range preview.Devices(0, 0) {
			if d.Responsive() {
				fmt.Printf("%-16s (tracks the preview container)\n", d.Name)
				continue
			}
			fmt.Printf("%-16s %dx%d\n", d.Name, d.Width, d.Height)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}
