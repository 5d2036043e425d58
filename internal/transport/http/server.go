// Package http exposes the tracking session API: session lifecycle,
// position ingestion, manual risk checks and the live feed socket.
package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"road-monitor/internal/domain"
	"road-monitor/internal/metrics"
	"road-monitor/internal/pipeline"
	"road-monitor/internal/risk"
	"road-monitor/internal/transport/ws"
)

type Server struct {
	mgr  *pipeline.Manager
	hub  *ws.Hub
	auth *AuthMiddleware
}

func NewServer(mgr *pipeline.Manager, hub *ws.Hub, auth *AuthMiddleware) *Server {
	return &Server{mgr: mgr, hub: hub, auth: auth}
}

// Routes builds the full handler tree. Everything except health and
// metrics sits behind API-key auth.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/session", s.handleStartSession)
	mux.HandleFunc("GET /api/session/{id}", s.handleGetSession)
	mux.HandleFunc("DELETE /api/session/{id}", s.handleStopSession)
	mux.HandleFunc("POST /api/session/{id}/positions", s.handleSubmitPosition)
	mux.HandleFunc("POST /api/session/{id}/fault", s.handleFault)
	mux.HandleFunc("POST /api/session/{id}/check", s.handleManualCheck)
	mux.HandleFunc("POST /api/session/{id}/dismiss", s.handleDismiss)
	mux.HandleFunc("GET /ws", s.handleFeed)

	root := http.NewServeMux()
	root.Handle("/api/", s.auth.Wrap(mux))
	root.Handle("/ws", s.auth.Wrap(mux))
	root.HandleFunc("GET /healthz", s.handleHealth)
	root.HandleFunc("GET /metrics", metrics.HandleMetrics)

	return root
}

type startSessionRequest struct {
	NotificationsPermitted bool `json:"notifications_permitted"`
}

type startSessionResponse struct {
	SessionID string `json:"session_id"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}

	sess, err := s.mgr.Start(r.Context(), req.NotificationsPermitted)
	if errors.Is(err, pipeline.ErrSessionActive) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to start session")
		return
	}

	writeJSON(w, http.StatusCreated, startSessionResponse{SessionID: sess.ID})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.mgr.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleStopSession(w http.ResponseWriter, r *http.Request) {
	if err := s.mgr.Stop(r.PathValue("id")); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type positionRequest struct {
	Lat         float64  `json:"lat"`
	Lng         float64  `json:"lng"`
	SpeedMPS    *float64 `json:"speed_mps"`
	TimestampMS int64    `json:"timestamp_ms"`
}

func (s *Server) handleSubmitPosition(w http.ResponseWriter, r *http.Request) {
	sess, err := s.mgr.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	var req positionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Lat < -90 || req.Lat > 90 || req.Lng < -180 || req.Lng > 180 {
		writeError(w, http.StatusBadRequest, "coordinates out of range")
		return
	}

	ts := time.Now()
	if req.TimestampMS > 0 {
		ts = time.UnixMilli(req.TimestampMS)
	}

	sample := &domain.PositionSample{
		ReceivedAt:  time.Now(),
		Timestamp:   ts,
		Lat:         req.Lat,
		Lon:         req.Lng,
		RawSpeedMPS: req.SpeedMPS,
	}

	switch err := sess.Submit(sample); {
	case errors.Is(err, pipeline.ErrSessionStopped):
		writeError(w, http.StatusGone, err.Error())
	case errors.Is(err, pipeline.ErrSessionBusy):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		w.WriteHeader(http.StatusAccepted)
	}
}

type faultRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) handleFault(w http.ResponseWriter, r *http.Request) {
	sess, err := s.mgr.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	var req faultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Reason == "" {
		writeError(w, http.StatusBadRequest, "reason is required")
		return
	}

	if err := sess.ReportFault(req.Reason); err != nil {
		writeError(w, http.StatusGone, err.Error())
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

type checkRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (s *Server) handleManualCheck(w http.ResponseWriter, r *http.Request) {
	sess, err := s.mgr.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	var req checkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Lat < -90 || req.Lat > 90 || req.Lng < -180 || req.Lng > 180 {
		writeError(w, http.StatusBadRequest, "coordinates out of range")
		return
	}

	report, err := sess.ManualCheck(r.Context(), req.Lat, req.Lng)
	if err != nil {
		switch risk.Classify(err) {
		case risk.FailureConfig:
			writeError(w, http.StatusServiceUnavailable, "risk service not configured")
		default:
			writeError(w, http.StatusBadGateway, "risk service query failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	sess, err := s.mgr.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err := sess.DismissAlert(); err != nil {
		writeError(w, http.StatusGone, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	ws.ServeWS(s.hub, w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "ok",
		"ws_clients": s.hub.ClientCount(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("response encode failed: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
