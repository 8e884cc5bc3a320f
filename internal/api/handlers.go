package api

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"exodetect/internal/batch"
	"exodetect/internal/predict"
	"exodetect/internal/schema"
	"exodetect/internal/storage"
	"exodetect/internal/stream"
)

// maxUploadBytes caps batch uploads; the cumulative catalogue itself is
// under 10 MB.
const maxUploadBytes = 32 << 20

type singleResponse struct {
	Prediction  int                  `json:"prediction"`
	Probability float64              `json:"probability"`
	Features    schema.FeatureVector `json:"features"`
}

type batchResponse struct {
	Results []batch.Item `json:"results"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleExoplanet serves the predict route. GET classifies the bundled
// sample record through the median-fallback engine path; POST validates the
// caller's record strictly and classifies it.
func (s *Server) handleExoplanet(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleSample(w, r)
	case http.MethodPost:
		s.handlePredict(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleSample(w http.ResponseWriter, r *http.Request) {
	engine, err := s.registry.Get(r.URL.Query().Get("engine"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	// The sample record is partial by design: leakage columns are stripped
	// at load time, and the engine fills any gaps with training medians.
	result, err := engine.Predict(s.sample)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.recordResult(engine.Name(), result, false)
	s.writeJSON(w, http.StatusOK, singleResponse{
		Prediction:  result.Prediction,
		Probability: result.Probability,
		Features:    result.Features,
	})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	decoder := json.NewDecoder(io.LimitReader(r.Body, maxUploadBytes))
	decoder.UseNumber()

	var record schema.RawRecord
	if err := decoder.Decode(&record); err != nil {
		s.writeError(w, http.StatusBadRequest, errors.New("request body must be a JSON object"))
		return
	}

	features, err := schema.Validate(record)
	if err != nil {
		if s.metrics != nil {
			s.metrics.ValidationFailures.Inc()
		}
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	engine, err := s.registry.Get(r.URL.Query().Get("engine"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := engine.Predict(features)
	if err != nil {
		if s.metrics != nil {
			s.metrics.PredictionFailures.Inc()
		}
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	if s.metrics != nil {
		s.metrics.Predictions.Inc()
		s.metrics.PredictionScores.Observe(result.Probability)
		s.metrics.PredictionLatency.Observe(time.Since(start).Seconds())
	}
	s.recordResult(engine.Name(), result, false)

	s.writeJSON(w, http.StatusOK, singleResponse{
		Prediction:  result.Prediction,
		Probability: result.Probability,
		Features:    result.Features,
	})
}

// handleBatch classifies an uploaded CSV or JSON file, or a raw JSON body,
// record by record. Decode failures reject the whole request; record-level
// failures only mark their own result item.
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data, filename, contentType, err := readUpload(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	records, err := batch.DecodeUpload(data, filename, contentType)
	if err != nil {
		if s.metrics != nil {
			s.metrics.DecodeFailures.Inc()
		}
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	engineName := r.URL.Query().Get("engine")
	items := batch.Run(records, s.registry, engineName)

	servedEngine := engineName
	if engine, err := s.registry.Get(engineName); err == nil {
		servedEngine = engine.Name()
	}

	if s.metrics != nil {
		s.metrics.BatchRequests.Inc()
		s.metrics.BatchRecords.Add(float64(len(items)))
	}
	for _, item := range items {
		if item.Err != "" {
			if s.metrics != nil {
				s.metrics.BatchRecordErrors.Inc()
			}
			continue
		}
		if s.metrics != nil {
			s.metrics.Predictions.Inc()
			s.metrics.PredictionScores.Observe(item.Result.Probability)
		}
		s.recordResult(servedEngine, *item.Result, true)
	}

	s.writeJSON(w, http.StatusOK, batchResponse{Results: items})
}

// readUpload pulls the payload from a multipart "file" field when present,
// falling back to the raw request body.
func readUpload(r *http.Request) (data []byte, filename, contentType string, err error) {
	mediaType := r.Header.Get("Content-Type")

	if err := r.ParseMultipartForm(maxUploadBytes); err == nil {
		var file multipart.File
		var header *multipart.FileHeader
		file, header, err = r.FormFile("file")
		if err != nil {
			return nil, "", "", errors.New("multipart form must include a file field")
		}
		defer file.Close()

		data, err = io.ReadAll(io.LimitReader(file, maxUploadBytes))
		if err != nil {
			return nil, "", "", err
		}
		return data, header.Filename, header.Header.Get("Content-Type"), nil
	}

	data, err = io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil {
		return nil, "", "", err
	}
	return data, "", mediaType, nil
}

func (s *Server) handleEngines(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"engines": s.registry.Names()})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.store == nil {
		s.writeError(w, http.StatusNotFound, errors.New("prediction history is not enabled"))
		return
	}

	records, err := s.store.RecentPredictions(s.config.HistoryLimit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if records == nil {
		records = []storage.PredictionRecord{}
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"predictions": records})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// recordResult persists and broadcasts a served classification. Failures
// here are logged, never surfaced: the response has already been decided.
func (s *Server) recordResult(engine string, result predict.Result, isBatch bool) {
	now := time.Now()

	if s.store != nil {
		record := storage.PredictionRecord{
			Timestamp:   now,
			Engine:      engine,
			Prediction:  result.Prediction,
			Probability: result.Probability,
			Batch:       isBatch,
		}
		if err := s.store.StorePrediction(record); err != nil {
			log.Warn().Err(err).Msg("failed to store prediction record")
		}
	}

	if s.hub != nil {
		s.hub.Broadcast(stream.Event{
			Timestamp:   now,
			Engine:      engine,
			Prediction:  result.Prediction,
			Probability: result.Probability,
			Batch:       isBatch,
		})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}
