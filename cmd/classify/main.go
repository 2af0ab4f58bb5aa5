// Command classify tags one audio file with a pretrained PaSST model and
// prints the labels above a confidence threshold.
//
// Usage:
//
//	classify <audio_path> [--filter music|genres] [--threshold 1e-9]
//
// A missing audio file or label mapping is reported on stdout and the
// command exits 0. Decode, parse and model errors exit 1.
package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/Brownie44l1/audiotag/internal/classify"
	"github.com/Brownie44l1/audiotag/internal/config"
	"github.com/Brownie44l1/audiotag/internal/labels"
	"github.com/Brownie44l1/audiotag/internal/model"
)

// defaultThreshold lets nearly every label through; classify.DefaultThreshold
// applies to library callers only.
const defaultThreshold = 0.000000001

var (
	configFile string
	filterName string
	threshold  float64
	mapping    string
	taxonomy   string
)

var rootCmd = &cobra.Command{
	Use:           "classify <audio_path>",
	Short:         "Classify audio using PaSST",
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		_, err := labels.ParseFilter(filterName)
		return err
	},
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVar(&filterName, "filter", "", "limit results to music or genres")
	rootCmd.Flags().Float64Var(&threshold, "threshold", defaultThreshold, "confidence threshold")
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "", "config file (YAML)")
	rootCmd.Flags().StringVar(&mapping, "labels", "", "class mapping CSV (overrides config)")
	rootCmd.Flags().StringVar(&taxonomy, "taxonomy", "", "label filter taxonomy YAML (overrides config)")
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if mapping != "" {
		cfg.Labels.Mapping = mapping
	}
	if taxonomy != "" {
		cfg.Labels.Taxonomy = taxonomy
	}

	out := cmd.OutOrStdout()

	classMap, err := labels.LoadClassMapping(cfg.Labels.Mapping)
	if err != nil {
		if errors.Is(err, labels.ErrNotFound) {
			fmt.Fprintf(out, "Error: Class mapping not found: %s\n", cfg.Labels.Mapping)
			return nil
		}
		return err
	}

	opts := []classify.Option{
		classify.WithOutput(out),
		classify.WithSampleRate(cfg.Audio.SampleRate),
	}
	if cfg.Labels.Taxonomy != "" {
		tax, err := labels.LoadTaxonomy(cfg.Labels.Taxonomy)
		if err != nil {
			return err
		}
		opts = append(opts, classify.WithTaxonomy(tax))
	}

	load := func() (classify.Model, error) {
		log.Printf("Loading model from: %s", cfg.Model.Path)
		s, err := model.NewSession(cfg.Model)
		if err != nil {
			return nil, err
		}
		log.Printf("Model running on %s", s.Device)
		return s, nil
	}

	classifier := classify.New(load, classMap, opts...)
	defer classifier.Close()

	filter, _ := labels.ParseFilter(filterName)
	_, err = classifier.Classify(args[0], filter, threshold)
	return err
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
