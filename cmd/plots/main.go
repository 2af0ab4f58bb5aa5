// Command plots renders the per-model genre prediction charts.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Brownie44l1/audiotag/internal/chart"
)

var (
	dataFile   string
	outDir     string
	dpi        int
	thumbWidth uint
)

var rootCmd = &cobra.Command{
	Use:           "plots",
	Short:         "Render genre prediction bar charts as PNG",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		results := chart.DefaultResults()
		if dataFile != "" {
			var err error
			if results, err = chart.LoadResults(dataFile); err != nil {
				return err
			}
		}

		opts := chart.DefaultOptions()
		opts.DPI = dpi
		opts.ThumbWidth = thumbWidth

		written, err := chart.Render(results, outDir, opts)
		for _, path := range written {
			fmt.Fprintln(cmd.OutOrStdout(), path)
		}
		return err
	},
}

func init() {
	rootCmd.Flags().StringVarP(&dataFile, "data", "d", "", "results table YAML (default: built-in table)")
	rootCmd.Flags().StringVarP(&outDir, "out", "o", "genre_pngs", "output directory")
	rootCmd.Flags().IntVar(&dpi, "dpi", 300, "output resolution")
	rootCmd.Flags().UintVar(&thumbWidth, "thumb-width", 0, "also write thumbnails this many pixels wide")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
