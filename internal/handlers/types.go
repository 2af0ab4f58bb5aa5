package handlers

import "github.com/Brownie44l1/audiotag/internal/classify"

type PredictionRequest struct {
	Waveform  []float32 `json:"waveform"`
	Filter    string    `json:"filter,omitempty"`
	Threshold *float64  `json:"threshold,omitempty"`
}

type PredictionResponse struct {
	Label       string                 `json:"label,omitempty"`
	Confidence  float32                `json:"confidence,omitempty"`
	Threshold   float64                `json:"threshold"`
	Filter      string                 `json:"filter,omitempty"`
	Predictions classify.PredictionSet `json:"predictions"`
}
