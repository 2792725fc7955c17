package eventbridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kingrea/teasaga/saga"
)

const maxBodyBytes = 64 << 10

type healthResponse struct {
	Status  string   `json:"status"`
	Demos   []string `json:"demos"`
	Pending int      `json:"pending"`
}

type actionRequest struct {
	Action string `json:"action"`
}

type responseRequest struct {
	Token   saga.Token      `json:"token"`
	Payload json.RawMessage `json:"payload"`
}

// Handler returns the bridge routes:
//
//	GET  /health
//	GET  /demos/{demo}/pending
//	POST /demos/{demo}/actions    {"action": "..."}
//	POST /demos/{demo}/responses  {"token": "...", "payload": <json>}
func (b *Bridge) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", b.handleHealth)
	r.Route("/demos/{demo}", func(r chi.Router) {
		r.Get("/pending", b.handlePending)
		r.Post("/actions", b.handleAction)
		r.Post("/responses", b.handleResponse)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody("method not allowed"))
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	})
	return r
}

// Serve listens on addr until ctx is cancelled.
func (b *Bridge) Serve(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("eventbridge: listen %s: %w", addr, err)
	}
	server := &http.Server{
		Handler:           b.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	b.logger.Printf("eventbridge: listening on %s", listener.Addr())
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(listener)
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("eventbridge: serve: %w", err)
	}
}

func (b *Bridge) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Demos:   b.Demos(),
		Pending: b.PendingCount(),
	})
}

func (b *Bridge) handlePending(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, b.Pending(chi.URLParam(r, "demo")))
}

func (b *Bridge) handleAction(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if !readJSON(w, r, &req) {
		return
	}
	demo := normalizeDemo(chi.URLParam(r, "demo"))
	if err := b.Act(demo, req.Action); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted", "demo": demo})
}

func (b *Bridge) handleResponse(w http.ResponseWriter, r *http.Request) {
	var req responseRequest
	if !readJSON(w, r, &req) {
		return
	}
	if req.Token == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("token is required"))
		return
	}
	if err := b.Respond(chi.URLParam(r, "demo"), req.Token, req.Payload); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted", "token": string(req.Token)})
}

func readJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	reader := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer reader.Close()
	body, err := io.ReadAll(reader)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody("payload exceeds limit"))
			return false
		}
		writeJSON(w, http.StatusBadRequest, errorBody("unable to read body"))
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON"))
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrInvalidPayload), errors.Is(err, ErrEmptyAction):
		status = http.StatusBadRequest
	case errors.Is(err, ErrUnknownToken):
		status = http.StatusNotFound
	case errors.Is(err, ErrNotRunning):
		status = http.StatusConflict
	case errors.Is(err, ErrInboxFull):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, errorBody(err.Error()))
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
