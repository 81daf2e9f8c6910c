package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/poiesic/colloquy/core"
	"github.com/poiesic/colloquy/orchestrator"
	"github.com/poiesic/colloquy/session"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

const (
	maxRequestBytes = 64 << 10
	shutdownTimeout = 10 * time.Second
)

// documentLister is the part of the engine the API exposes besides turns.
type documentLister interface {
	Documents(ctx context.Context) ([]*core.Document, error)
}

type errorResponse struct {
	Error string `json:"error"`
}

type historyResponse struct {
	SessionID string      `json:"sessionId"`
	Turns     []core.Turn `json:"turns"`
}

func serveCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	server := &http.Server{
		Addr:              c.String("addr"),
		Handler:           newRouter(engine.Orchestrator(), engine),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// newRouter builds the HTTP API around conv.
func newRouter(conv conversation, docs documentLister) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/turns", turnHandler(conv))
		r.Get("/documents", documentsHandler(docs))
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Delete("/", deleteSessionHandler(conv))
			r.Get("/turns", historyHandler(conv))
		})
	})
	return r
}

func turnHandler(conv conversation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req orchestrator.TurnRequest
		decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}

		resp, err := conv.HandleTurn(r.Context(), req)
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func deleteSessionHandler(conv conversation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var err error
		if r.URL.Query().Get("end") == "true" {
			err = conv.EndSession(r.Context(), id)
		} else {
			err = conv.ClearSession(r.Context(), id)
		}
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func historyHandler(conv conversation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		turns, err := conv.History(r.Context(), id)
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}
		writeJSON(w, http.StatusOK, historyResponse{SessionID: id, Turns: turns})
	}
}

func documentsHandler(docs documentLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := docs.Documents(r.Context())
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}
		if list == nil {
			list = []*core.Document{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// writeError maps err to a status code. Internal error text is logged,
// never returned.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "session not found"})
	case errors.Is(err, session.ErrEmptyID):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "session id is required"})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "request cancelled"})
	default:
		slog.ErrorContext(ctx, "request failed", "request_id", middleware.GetReqID(ctx), "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response", "err", err)
	}
}

// accessLogger logs one line per request.
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
