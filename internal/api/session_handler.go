package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/unalkalkan/ReelPilot/internal/packaging"
	"github.com/unalkalkan/ReelPilot/internal/storage"
	"github.com/unalkalkan/ReelPilot/internal/workflow"
	"github.com/unalkalkan/ReelPilot/pkg/types"
)

const maxBodyBytes = 64 << 10

// SessionHandler exposes session intents over HTTP
type SessionHandler struct {
	sessions  *SessionRegistry
	packaging *packaging.Service
	store     *storage.ArtifactStore
}

// NewSessionHandler creates a session handler. store may be nil.
func NewSessionHandler(sessions *SessionRegistry, packagingService *packaging.Service, store *storage.ArtifactStore) *SessionHandler {
	return &SessionHandler{
		sessions:  sessions,
		packaging: packagingService,
		store:     store,
	}
}

// imageView is a generated image without its bytes
type imageView struct {
	ID        string    `json:"id"`
	Prompt    string    `json:"prompt"`
	MIMEType  string    `json:"mime_type"`
	Scene     int       `json:"scene"`
	CreatedAt time.Time `json:"created_at"`
	URL       string    `json:"url"`
}

// sessionView is the JSON form of a snapshot; image bytes are served
// separately
type sessionView struct {
	workflow.Snapshot
	Visuals []imageView `json:"visuals"`
}

func newSessionView(snap workflow.Snapshot) sessionView {
	images := make([]imageView, len(snap.Visuals))
	for i, img := range snap.Visuals {
		images[i] = imageView{
			ID:        img.ID,
			Prompt:    img.Prompt,
			MIMEType:  img.MIMEType,
			Scene:     img.Scene,
			CreatedAt: img.CreatedAt,
			URL:       fmt.Sprintf("/api/v1/sessions/%s/images/%s", snap.ID, img.ID),
		}
	}
	return sessionView{Snapshot: snap, Visuals: images}
}

// Register mounts the session routes on r
func (h *SessionHandler) Register(r *mux.Router) {
	r.HandleFunc("/sessions", h.CreateSession).Methods(http.MethodPost)
	r.HandleFunc("/sessions", h.ListSessions).Methods(http.MethodGet)

	s := r.PathPrefix("/sessions/{id}").Subrouter()
	s.HandleFunc("", h.GetSession).Methods(http.MethodGet)
	s.HandleFunc("", h.DeleteSession).Methods(http.MethodDelete)
	s.HandleFunc("/config", h.UpdateConfig).Methods(http.MethodPut)
	s.HandleFunc("/advance", h.Advance).Methods(http.MethodPost)
	s.HandleFunc("/reset", h.Reset).Methods(http.MethodPost)
	s.HandleFunc("/cancel", h.Cancel).Methods(http.MethodPost)
	s.HandleFunc("/topic", h.SelectTopic).Methods(http.MethodPost)
	s.HandleFunc("/refinement", h.SubmitRefinement).Methods(http.MethodPost)
	s.HandleFunc("/feedback", h.SubmitFeedback).Methods(http.MethodPost)
	s.HandleFunc("/storyboard", h.GetStoryboard).Methods(http.MethodGet)
	s.HandleFunc("/storyboard/toggle", h.ToggleStoryboard).Methods(http.MethodPost)
	s.HandleFunc("/storyboard/reset", h.ResetStoryboard).Methods(http.MethodPost)
	s.HandleFunc("/storyboard/next", h.NextStoryboardFrame).Methods(http.MethodPost)
	s.HandleFunc("/export", h.RequestExport).Methods(http.MethodPost)
	s.HandleFunc("/export", h.CloseExport).Methods(http.MethodDelete)
	s.HandleFunc("/export/copy", h.CopyExport).Methods(http.MethodPost)
	s.HandleFunc("/subtitles.srt", h.GetSubtitles).Methods(http.MethodGet)
	s.HandleFunc("/images/{imageId}", h.GetImage).Methods(http.MethodGet)
	s.HandleFunc("/bundle", h.GetBundle).Methods(http.MethodGet)
}

// CreateSession handles POST /api/v1/sessions
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var cfg *types.SessionConfig
	if r.ContentLength != 0 {
		var body types.SessionConfig
		if err := decodeBody(r, &body); err != nil {
			respondError(w, err.Error(), http.StatusBadRequest)
			return
		}
		cfg = &body
	}

	c, err := h.sessions.Create(cfg)
	if err != nil {
		respondError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	respondJSON(w, newSessionView(c.Snapshot()), http.StatusCreated)
}

// ListSessions handles GET /api/v1/sessions
func (h *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]any{
		"sessions": h.sessions.IDs(),
		"limit":    h.sessions.Limit(),
	}, http.StatusOK)
}

// GetSession handles GET /api/v1/sessions/{id}
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	c, ok := h.session(w, r)
	if !ok {
		return
	}
	respondJSON(w, newSessionView(c.Snapshot()), http.StatusOK)
}

// DeleteSession handles DELETE /api/v1/sessions/{id}
func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !h.sessions.Delete(id) {
		respondError(w, "Session not found", http.StatusNotFound)
		return
	}
	if h.store != nil {
		if err := h.store.DeleteSession(r.Context(), id); err != nil {
			log.Printf("[API] Failed to delete artifacts of session %s: %v", id, err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateConfig handles PUT /api/v1/sessions/{id}/config
func (h *SessionHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	c, ok := h.session(w, r)
	if !ok {
		return
	}
	var cfg types.SessionConfig
	if err := decodeBody(r, &cfg); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, err := c.UpdateConfig(cfg); err != nil {
		respondIntentError(w, err)
		return
	}
	respondJSON(w, newSessionView(c.Snapshot()), http.StatusOK)
}

// Advance handles POST /api/v1/sessions/{id}/advance. The step runs in
// the background; clients poll the session for progress.
func (h *SessionHandler) Advance(w http.ResponseWriter, r *http.Request) {
	c, ok := h.session(w, r)
	if !ok {
		return
	}
	started := c.Advance()
	status := http.StatusAccepted
	if !started {
		status = http.StatusOK
	}
	respondJSON(w, map[string]any{
		"started": started,
		"session": newSessionView(c.Snapshot()),
	}, status)
}

// Reset handles POST /api/v1/sessions/{id}/reset
func (h *SessionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	c, ok := h.session(w, r)
	if !ok {
		return
	}
	c.Reset()
	respondJSON(w, newSessionView(c.Snapshot()), http.StatusOK)
}

// Cancel handles POST /api/v1/sessions/{id}/cancel
func (h *SessionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	c, ok := h.session(w, r)
	if !ok {
		return
	}
	respondJSON(w, map[string]bool{"cancelled": c.CancelOperation()}, http.StatusOK)
}

// SelectTopic handles POST /api/v1/sessions/{id}/topic
func (h *SessionHandler) SelectTopic(w http.ResponseWriter, r *http.Request) {
	c, ok := h.session(w, r)
	if !ok {
		return
	}
	var req struct {
		Topic string `json:"topic"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		respondError(w, "topic is required", http.StatusBadRequest)
		return
	}
	if err := c.SelectTopic(topic); err != nil {
		respondIntentError(w, err)
		return
	}
	respondJSON(w, newSessionView(c.Snapshot()), http.StatusOK)
}

// SubmitRefinement handles POST /api/v1/sessions/{id}/refinement
func (h *SessionHandler) SubmitRefinement(w http.ResponseWriter, r *http.Request) {
	c, ok := h.session(w, r)
	if !ok {
		return
	}
	var req struct {
		Refinement string `json:"refinement"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := c.SubmitTopicRefinement(strings.TrimSpace(req.Refinement)); err != nil {
		respondIntentError(w, err)
		return
	}
	respondJSON(w, newSessionView(c.Snapshot()), http.StatusOK)
}

// SubmitFeedback handles POST /api/v1/sessions/{id}/feedback
func (h *SessionHandler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	c, ok := h.session(w, r)
	if !ok {
		return
	}
	var req struct {
		Feedback string `json:"feedback"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	started, err := c.SubmitScriptFeedback(strings.TrimSpace(req.Feedback))
	if err != nil {
		respondIntentError(w, err)
		return
	}
	status := http.StatusOK
	if started {
		status = http.StatusAccepted
	}
	respondJSON(w, map[string]any{
		"started": started,
		"session": newSessionView(c.Snapshot()),
	}, status)
}

// GetStoryboard handles GET /api/v1/sessions/{id}/storyboard
func (h *SessionHandler) GetStoryboard(w http.ResponseWriter, r *http.Request) {
	c, ok := h.session(w, r)
	if !ok {
		return
	}
	f := c.Frame()
	resp := map[string]any{
		"playing":       f.Playing,
		"segment_index": f.SegmentIndex,
		"image_index":   f.ImageIndex,
		"image_count":   f.ImageCount,
		"duration_ms":   f.Duration.Milliseconds(),
	}
	if f.Segment != nil {
		resp["segment"] = f.Segment
	}
	if f.Image != nil {
		resp["image_url"] = fmt.Sprintf("/api/v1/sessions/%s/images/%s", c.ID(), f.Image.ID)
	}
	respondJSON(w, resp, http.StatusOK)
}

// ToggleStoryboard handles POST /api/v1/sessions/{id}/storyboard/toggle
func (h *SessionHandler) ToggleStoryboard(w http.ResponseWriter, r *http.Request) {
	if c, ok := h.session(w, r); ok {
		respondJSON(w, c.ToggleStoryboard(), http.StatusOK)
	}
}

// ResetStoryboard handles POST /api/v1/sessions/{id}/storyboard/reset
func (h *SessionHandler) ResetStoryboard(w http.ResponseWriter, r *http.Request) {
	if c, ok := h.session(w, r); ok {
		respondJSON(w, c.ResetStoryboard(), http.StatusOK)
	}
}

// NextStoryboardFrame handles POST /api/v1/sessions/{id}/storyboard/next
func (h *SessionHandler) NextStoryboardFrame(w http.ResponseWriter, r *http.Request) {
	if c, ok := h.session(w, r); ok {
		respondJSON(w, c.AdvanceStoryboardFrame(), http.StatusOK)
	}
}

// RequestExport handles POST /api/v1/sessions/{id}/export
func (h *SessionHandler) RequestExport(w http.ResponseWriter, r *http.Request) {
	c, ok := h.session(w, r)
	if !ok {
		return
	}
	text, err := c.RequestExport()
	if err != nil {
		respondIntentError(w, err)
		return
	}
	respondJSON(w, map[string]string{"prompt": text}, http.StatusOK)
}

// CloseExport handles DELETE /api/v1/sessions/{id}/export
func (h *SessionHandler) CloseExport(w http.ResponseWriter, r *http.Request) {
	c, ok := h.session(w, r)
	if !ok {
		return
	}
	c.CloseExport()
	w.WriteHeader(http.StatusNoContent)
}

// CopyExport handles POST /api/v1/sessions/{id}/export/copy
func (h *SessionHandler) CopyExport(w http.ResponseWriter, r *http.Request) {
	c, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := c.CopyExport(r.Context()); err != nil {
		respondIntentError(w, err)
		return
	}
	respondJSON(w, map[string]bool{"copied": true}, http.StatusOK)
}

// GetSubtitles handles GET /api/v1/sessions/{id}/subtitles.srt
func (h *SessionHandler) GetSubtitles(w http.ResponseWriter, r *http.Request) {
	c, ok := h.session(w, r)
	if !ok {
		return
	}
	srt := c.Snapshot().SRT
	if srt == "" {
		respondError(w, "Subtitles not generated yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/x-subrip; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="subtitles.srt"`)
	io.WriteString(w, srt+"\n")
}

// GetImage handles GET /api/v1/sessions/{id}/images/{imageId}
func (h *SessionHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	c, ok := h.session(w, r)
	if !ok {
		return
	}
	imageID := mux.Vars(r)["imageId"]
	for _, img := range c.Snapshot().Visuals {
		if img.ID == imageID {
			w.Header().Set("Content-Type", img.MIMEType)
			w.Header().Set("Cache-Control", "private, max-age=3600")
			w.Write(img.Data)
			return
		}
	}
	respondError(w, "Image not found", http.StatusNotFound)
}

// GetBundle handles GET /api/v1/sessions/{id}/bundle
func (h *SessionHandler) GetBundle(w http.ResponseWriter, r *http.Request) {
	c, ok := h.session(w, r)
	if !ok {
		return
	}
	data, _, err := h.packaging.Archive(r.Context(), c.Snapshot())
	if err != nil {
		if errors.Is(err, packaging.ErrNothingToPackage) {
			respondError(w, err.Error(), http.StatusConflict)
			return
		}
		log.Printf("[API] Failed to package session %s: %v", c.ID(), err)
		respondError(w, "Failed to package session", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="reelpilot-%s.zip"`, c.ID()))
	w.Write(data)
}

func (h *SessionHandler) session(w http.ResponseWriter, r *http.Request) (*workflow.Controller, bool) {
	c, ok := h.sessions.Get(mux.Vars(r)["id"])
	if !ok {
		respondError(w, "Session not found", http.StatusNotFound)
	}
	return c, ok
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func respondIntentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, workflow.ErrBusy), errors.Is(err, workflow.ErrNotAllowed),
		errors.Is(err, workflow.ErrNoScript), errors.Is(err, workflow.ErrNoExport):
		respondError(w, err.Error(), http.StatusConflict)
	default:
		respondError(w, err.Error(), http.StatusInternalServerError)
	}
}

func respondJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
