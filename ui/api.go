package ui

import (
	"encoding/json"
	"net/http"

	"biasev/domain/model"
	"biasev/domain/stats"
	"biasev/internal/errors"
	"biasev/internal/notes"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// predictRequest is the JSON body of POST /api/predict
type predictRequest struct {
	Features map[string]float64 `json:"features"`
}

type predictResponse struct {
	Severity float64            `json:"severity"`
	Display  string             `json:"display"`
	Features map[string]float64 `json:"features"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// apiRouter builds the JSON API. Routes carry the /api prefix because gin
// hands over the full request path.
func (s *Server) apiRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, errors.NotFound("API route "+r.URL.Path))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.apiHealth)
		r.Get("/model/schema", s.apiSchema)
		r.Post("/predict", s.apiPredict)
		r.Post("/anova", s.apiAnova)
		r.Get("/composition", s.apiComposition)
	})
	return r
}

func (s *Server) apiHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "ok",
		"model_loaded": s.predictions.Available(),
	})
}

func (s *Server) apiSchema(w http.ResponseWriter, r *http.Request) {
	schema, err := s.predictions.Schema()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Fields []model.Field `json:"fields"`
	}{Fields: schema.Fields})
}

func (s *Server) apiPredict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, errors.InvalidInput("invalid JSON body: "+err.Error()))
		return
	}

	prediction, err := s.predictions.Predict(r.Context(), req.Features)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, predictResponse{
		Severity: prediction.Severity,
		Display:  prediction.Display(),
		Features: prediction.Row.Map(),
	})
}

func (s *Server) apiAnova(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes+1<<20)
	file, header, err := r.FormFile("dataset")
	if err != nil {
		s.writeError(w, errors.InvalidInput("multipart field \"dataset\" is required: "+err.Error()))
		return
	}
	defer file.Close()

	table, err := s.datasets.Parse(r.Context(), header.Filename, file)
	if err != nil {
		s.writeError(w, err)
		return
	}

	result, err := s.analysis.Run(r.Context(), table, stats.AnovaRequest{
		Target:     r.FormValue("target"),
		Predictors: r.Form["predictor"],
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) apiComposition(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"intro":    notes.CompositionIntro,
		"markdown": notes.CompositionMarkdown,
		"html":     string(notes.CompositionHTML()),
	})
}

// statusFor maps an error code to an HTTP status
func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.CodeInvalidInput, errors.CodeParseError, errors.CodeFitError:
		return http.StatusBadRequest
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodeModelUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("API request failed", zap.Error(err))
	}
	writeJSON(w, status, map[string]errorBody{
		"error": {Code: errors.GetCode(err), Message: err.Error()},
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
