package main

import (
	"errors"
	"log"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/Brownie44l1/audiotag/internal/classify"
	"github.com/Brownie44l1/audiotag/internal/config"
	"github.com/Brownie44l1/audiotag/internal/handlers"
	"github.com/Brownie44l1/audiotag/internal/labels"
	"github.com/Brownie44l1/audiotag/internal/model"
)

func enableCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

var configFile string

var rootCmd = &cobra.Command{
	Use:          "server",
	Short:        "Serve PaSST audio tagging over HTTP",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         serve,
}

func init() {
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "", "config file (YAML)")
}

func serve(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	classMap, err := labels.LoadClassMapping(cfg.Labels.Mapping)
	if err != nil {
		if errors.Is(err, labels.ErrNotFound) {
			log.Printf("Class mapping not found: %s", cfg.Labels.Mapping)
			return nil
		}
		return err
	}

	taxonomy := labels.DefaultTaxonomy()
	if cfg.Labels.Taxonomy != "" {
		if taxonomy, err = labels.LoadTaxonomy(cfg.Labels.Taxonomy); err != nil {
			return err
		}
	}

	log.Printf("Loading model from: %s", cfg.Model.Path)

	session, err := model.NewSession(cfg.Model)
	if err != nil {
		return err
	}
	classifier := classify.New(classify.Preloaded(session), classMap,
		classify.WithTaxonomy(taxonomy),
		classify.WithSampleRate(cfg.Audio.SampleRate))
	defer classifier.Close()

	// Resolve the model now so the label coverage check runs at start-up.
	if _, err := classifier.Model(); err != nil {
		return err
	}

	handler := handlers.NewHandler(classifier, cfg.Audio.SampleRate)

	http.HandleFunc("/health", enableCORS(handler.Health))
	http.HandleFunc("/predict", enableCORS(handler.Predict))
	http.HandleFunc("/predict/audio", enableCORS(handler.PredictFromAudio))

	log.Printf("Server starting on port %s", cfg.Server.Port)
	log.Printf("Model loaded: %s (%s, %d classes)", cfg.Model.Path, session.Device, session.NumClasses())
	log.Println("Endpoints:")
	log.Println("  GET  /health        - Health check")
	log.Println("  POST /predict       - Raw waveform prediction")
	log.Println("  POST /predict/audio - Predict from audio upload")
	log.Printf("Upload test: curl -X POST -F \"audio=@song.wav\" -F filter=genres http://localhost:%s/predict/audio", cfg.Server.Port)

	return http.ListenAndServe(":"+cfg.Server.Port, nil)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
