package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/nerrad567/gray-logic-haptics/internal/actuator"
	"github.com/nerrad567/gray-logic-haptics/internal/haptic"
	"github.com/nerrad567/gray-logic-haptics/internal/history"
)

// ActuateRequest is the body of POST /haptics/actuate. Only pattern is
// required; values are passed to the driver unvalidated.
type ActuateRequest struct {
	Pattern *int32  `json:"pattern"`
	Flags   uint32  `json:"flags"`
	Param1  float32 `json:"param1"`
	Param2  float32 `json:"param2"`
}

// PatternInfo describes one actuation id.
type PatternInfo struct {
	ID   int32  `json:"id"`
	Name string `json:"name,omitempty"`
}

// PatternsResponse is returned by GET /haptics/patterns.
type PatternsResponse struct {
	Named []PatternInfo `json:"named"`
	Known []PatternInfo `json:"known"`
}

// HistoryResponse is returned by GET /haptics/history.
type HistoryResponse struct {
	Events []history.Event `json:"events"`
	Count  int             `json:"count"`
	Limit  int             `json:"limit"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.controller.Status())
}

func (s *Server) handleActuate(w http.ResponseWriter, r *http.Request) {
	var req ActuateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrCodeBadRequest, "request body too large")
			return
		}
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Pattern == nil {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "pattern is required")
		return
	}

	res, err := s.controller.Actuate(r.Context(), haptic.Command{
		Pattern: actuator.ActuationID(*req.Pattern),
		Flags:   req.Flags,
		Param1:  req.Param1,
		Param2:  req.Param2,
		Source:  haptic.SourceAPI,
	})
	if err != nil {
		status, code := actuatorErrorStatus(err)
		s.logger.Warn("actuation request failed",
			"client", clientName(r.Context()),
			"status", status,
			"error", err,
			"request_id", requestID(r.Context()),
		)
		writeError(w, status, code, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handlePatterns(w http.ResponseWriter, _ *http.Request) {
	resp := PatternsResponse{}
	for _, id := range []actuator.ActuationID{
		actuator.PatternNone, actuator.PatternWeak, actuator.PatternMedium, actuator.PatternStrong,
	} {
		resp.Named = append(resp.Named, PatternInfo{ID: int32(id), Name: actuator.PatternName(id)})
	}
	for _, id := range actuator.KnownPatterns {
		resp.Known = append(resp.Known, PatternInfo{ID: int32(id), Name: actuator.PatternName(id)})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "actuation history is not enabled")
		return
	}

	limit := history.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeBadRequest(w, "limit must be a positive integer")
			return
		}
		limit = history.ClampLimit(n)
	}

	events, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("reading actuation history", "error", err, "request_id", requestID(r.Context()))
		writeInternalError(w, "failed to read actuation history")
		return
	}
	if events == nil {
		events = []history.Event{}
	}

	writeJSON(w, http.StatusOK, HistoryResponse{Events: events, Count: len(events), Limit: limit})
}
