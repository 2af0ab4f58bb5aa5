package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"

	"github.com/Brownie44l1/audiotag/internal/audio"
	"github.com/Brownie44l1/audiotag/internal/classify"
	"github.com/Brownie44l1/audiotag/internal/labels"
)

// maxUploadSize bounds multipart audio uploads.
const maxUploadSize = 50 << 20

type Handler struct {
	classifier *classify.Classifier
	sampleRate int
}

func NewHandler(classifier *classify.Classifier, sampleRate int) *Handler {
	return &Handler{
		classifier: classifier,
		sampleRate: sampleRate,
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}

// Predict classifies a waveform that is already mono, at the model rate and
// exactly audio.TargetLength samples long.
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	reqID := requestID(w)
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var req PredictionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if len(req.Waveform) != audio.TargetLength {
		http.Error(w, fmt.Sprintf("Expected %d samples, got %d", audio.TargetLength, len(req.Waveform)),
			http.StatusBadRequest)
		return
	}

	filter, err := labels.ParseFilter(req.Filter)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	threshold := classify.DefaultThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}

	waveform := &audio.Waveform{Samples: req.Waveform, SampleRate: h.sampleRate}
	h.respond(w, reqID, waveform, filter, threshold)
}

// PredictFromAudio decodes an uploaded audio file and classifies it.
func (h *Handler) PredictFromAudio(w http.ResponseWriter, r *http.Request) {
	reqID := requestID(w)
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		http.Error(w, "No audio file provided. Use 'audio' as the form field name", http.StatusBadRequest)
		return
	}
	defer file.Close()

	log.Printf("[%s] Received file: %s, size: %d bytes", reqID, header.Filename, header.Size)

	filter, err := labels.ParseFilter(r.FormValue("filter"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	threshold := classify.DefaultThreshold
	if v := r.FormValue("threshold"); v != "" {
		threshold, err = strconv.ParseFloat(v, 64)
		if err != nil {
			http.Error(w, "Invalid threshold", http.StatusBadRequest)
			return
		}
	}

	// Decoders need a seekable file and ffmpeg needs a path.
	tmp, err := os.CreateTemp("", "upload-*"+filepath.Ext(header.Filename))
	if err != nil {
		log.Printf("[%s] Temp file error: %v", reqID, err)
		http.Error(w, "Failed to store upload", http.StatusInternalServerError)
		return
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := io.Copy(tmp, file); err != nil {
		http.Error(w, "Failed to read upload", http.StatusBadRequest)
		return
	}

	waveform, err := audio.Load(tmp.Name(), h.sampleRate)
	if err != nil {
		log.Printf("[%s] Decode error: %v", reqID, err)
		if errors.Is(err, audio.ErrDecode) {
			http.Error(w, "Unsupported or corrupt audio file", http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to load audio", http.StatusInternalServerError)
		return
	}

	log.Printf("[%s] Normalized audio: %d samples at %d Hz", reqID, len(waveform.Samples), waveform.SampleRate)

	h.respond(w, reqID, waveform, filter, threshold)
}

func (h *Handler) respond(w http.ResponseWriter, reqID string, waveform *audio.Waveform, filter labels.Filter, threshold float64) {
	set, err := h.classifier.Predict(waveform, filter, threshold)
	if err != nil {
		log.Printf("[%s] Prediction error: %v", reqID, err)
		http.Error(w, "Prediction failed", http.StatusInternalServerError)
		return
	}

	resp := PredictionResponse{
		Threshold:   threshold,
		Filter:      string(filter),
		Predictions: set,
	}
	if len(set) > 0 {
		resp.Label = set[0].Label
		resp.Confidence = set[0].Probability
	}
	if resp.Predictions == nil {
		resp.Predictions = classify.PredictionSet{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func requestID(w http.ResponseWriter) string {
	id := uuid.NewString()
	w.Header().Set("X-Request-ID", id)
	return id
}
