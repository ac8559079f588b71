package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/spigell/hh-roster/internal/format"
	"github.com/spigell/hh-roster/internal/logger"
	"github.com/spigell/hh-roster/internal/retrieval"
	"github.com/spigell/hh-roster/internal/roster"
)

const maxLoggedQuery = 200

// chatBody is the wire form; Text is a pointer so a missing field can be told
// apart from an empty one.
type chatBody struct {
	Text *string `json:"text"`
	K    *int    `json:"k,omitempty"`
}

type chatRequest struct {
	Text string
	K    *int
}

type chatResponse struct {
	Query   string                  `json:"query"`
	Results []roster.EmployeeRecord `json:"results"`
	Count   int                     `json:"count"`
}

type summaryResponse struct {
	Query   string `json:"query"`
	Summary string `json:"summary"`
	Count   int    `json:"count"`
}

type searchResponse struct {
	Filters retrieval.Criteria      `json:"filters"`
	Results []roster.EmployeeRecord `json:"results"`
	Count   int                     `json:"count"`
}

type listResponse struct {
	Results []roster.EmployeeRecord `json:"results"`
	Count   int                     `json:"count"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Employees int    `json:"employees"`
	Embedder  string `json:"embedder"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexPage)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Employees: s.engine.Roster().Len(),
		Embedder:  s.engine.Model(),
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeChat(w, r)
	if !ok {
		return
	}

	results, err := s.engine.RetrieveByText(r.Context(), req.Text, s.resultSize(req))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	requestLogger(s.logger, r).Info("chat query",
		logger.Query(req.Text, maxLoggedQuery),
		zap.Int("count", len(results)),
	)

	writeJSON(w, http.StatusOK, chatResponse{Query: req.Text, Results: results, Count: len(results)})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeChat(w, r)
	if !ok {
		return
	}

	results, err := s.engine.RetrieveByText(r.Context(), req.Text, s.resultSize(req))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, summaryResponse{
		Query:   req.Text,
		Summary: format.Results(req.Text, results),
		Count:   len(results),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	criteria, err := retrieval.ParseValues(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	results, err := s.engine.RetrieveByFilter(r.Context(), criteria)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{Filters: criteria, Results: results, Count: len(results)})
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	results := s.engine.Roster().All()
	writeJSON(w, http.StatusOK, listResponse{Results: results, Count: len(results)})
}

func (s *Server) decodeChat(w http.ResponseWriter, r *http.Request) (chatRequest, bool) {
	var body chatBody

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "request body must be a JSON object with a text field"})
		return chatRequest{}, false
	}

	if body.Text == nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "text is required"})
		return chatRequest{}, false
	}

	return chatRequest{Text: *body.Text, K: body.K}, true
}

func (s *Server) resultSize(req chatRequest) int {
	if req.K != nil && *req.K > 0 {
		return *req.K
	}
	return s.cfg.DefaultK
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	log := requestLogger(s.logger, r)

	// The client went away; there is nobody to answer.
	if errors.Is(err, context.Canceled) && r.Context().Err() != nil {
		log.Debug("request cancelled by client", zap.Error(err))
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, retrieval.ErrInvalidCriteria):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	case errors.Is(err, retrieval.ErrEmbedding):
		status = http.StatusBadGateway
	}

	if status >= http.StatusInternalServerError {
		log.Error("request failed", zap.Int("status", status), zap.Error(err))
	} else {
		log.Debug("rejected request", zap.Int("status", status), zap.Error(err))
	}

	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
