package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/krishivue/agri-api/internal/model"
	"github.com/krishivue/agri-api/internal/predict"
)

type Handler struct {
	disease   *predict.DiseaseService
	crop      *predict.CropService
	maxUpload int64
}

// NewHandler wires the pipelines into HTTP handlers. crop may be nil when
// the process only proxies disease predictions.
func NewHandler(disease *predict.DiseaseService, crop *predict.CropService, maxUpload int64) *Handler {
	return &Handler{
		disease:   disease,
		crop:      crop,
		maxUpload: maxUpload,
	}
}

func (h *Handler) Hello(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, r, errMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Hello World"})
}

func (h *Handler) PredictDisease(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, r, errMethodNotAllowed)
		return
	}

	if h.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	}

	data, err := readUpload(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.disease.Predict(r.Context(), data)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("Disease predicted", "class", result.Class, "confidence", result.Confidence, "request_id", RequestID(r.Context()))
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) PredictCrop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, r, errMethodNotAllowed)
		return
	}

	var sample model.SoilSample
	if err := json.NewDecoder(r.Body).Decode(&sample); err != nil {
		writeError(w, r, fmt.Errorf("%w: %v", model.ErrValidation, err))
		return
	}

	result, err := h.crop.Predict(r.Context(), &sample)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("Crop predicted", "crop", result.Prediction, "request_id", RequestID(r.Context()))
	writeJSON(w, http.StatusOK, result)
}

// readUpload returns the bytes of the "file" form field, falling back to
// "image".
func readUpload(r *http.Request) ([]byte, error) {
	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		file, header, err = r.FormFile("image")
	}
	if err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: no file uploaded in form field \"file\": %v", model.ErrValidation, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read upload: %v", model.ErrValidation, err)
	}

	slog.Debug("Received file", "filename", header.Filename, "size", len(data))
	return data, nil
}
