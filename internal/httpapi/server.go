// Package httpapi exposes the assistant over HTTP: an audio endpoint
// mirroring the browser client's contract, a plain-text endpoint for
// debugging and a health check.
package httpapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"shop-assistant/internal/application"
)

// Exchanger is the slice of the assistant the API needs.
type Exchanger interface {
	Handle(ctx context.Context, audio []byte, format string) (*application.Exchange, error)
	HandleText(ctx context.Context, text string) (*application.Exchange, error)
}

type Server struct {
	assistant Exchanger
	logger    *slog.Logger
	router    chi.Router
}

func NewServer(assistant Exchanger, logger *slog.Logger) *Server {
	s := &Server{
		assistant: assistant,
		logger:    logger,
	}

	limiter := NewRateLimiter(30, time.Minute)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(corsMiddleware)

	r.Group(func(r chi.Router) {
		r.Use(limiter.Middleware)
		r.Post("/assist", s.handleAssist)
		r.Post("/text", s.handleText)
	})
	r.Get("/health", s.handleHealth)

	s.router = r
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server starting", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

type assistRequest struct {
	AudioBase64 string `json:"audio_base64"`
	AudioFormat string `json:"audio_format"`
}

type assistResponse struct {
	InputText                string   `json:"inputText"`
	AgentResponseText        string   `json:"agentResponseText"`
	AgentResponseAudioBase64 *string  `json:"agentResponseAudioBase64"`
	AgentCallLog             []string `json:"agentCallLog"`
}

func (s *Server) handleAssist(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 20*1024*1024))
	if err != nil || len(body) == 0 {
		writeError(w, http.StatusBadRequest, "Cuerpo de la solicitud no encontrado.")
		return
	}

	var req assistRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Cuerpo de la solicitud no encontrado.")
		return
	}
	if req.AudioBase64 == "" {
		writeError(w, http.StatusBadRequest, "audio_base64 no encontrado en el cuerpo.")
		return
	}

	format := req.AudioFormat
	if format == "" {
		format = "webm"
	}

	audio, err := base64.StdEncoding.DecodeString(req.AudioBase64)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("decodificando audio_base64: %v", err))
		return
	}

	exchange, err := s.assistant.Handle(r.Context(), audio, format)
	if err != nil {
		s.logger.Error("exchange failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeExchange(w, exchange)
}

type textRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleText(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 64*1024))
	if err != nil || len(body) == 0 {
		writeError(w, http.StatusBadRequest, "Cuerpo de la solicitud no encontrado.")
		return
	}

	var req textRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Cuerpo de la solicitud no encontrado.")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text no encontrado en el cuerpo.")
		return
	}

	exchange, err := s.assistant.HandleText(r.Context(), req.Text)
	if err != nil {
		s.logger.Error("text exchange failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeExchange(w, exchange)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) writeExchange(w http.ResponseWriter, exchange *application.Exchange) {
	resp := assistResponse{
		InputText:         exchange.InputText,
		AgentResponseText: exchange.ResponseText,
		AgentCallLog:      exchange.CallLog,
	}
	if len(exchange.ResponseAudio) > 0 {
		encoded := base64.StdEncoding.EncodeToString(exchange.ResponseAudio)
		resp.AgentResponseAudioBase64 = &encoded
	}
	if resp.AgentCallLog == nil {
		resp.AgentCallLog = []string{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
