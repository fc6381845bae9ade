package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP surface for state inspection and triggered runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, nil)
		if err != nil {
			return err
		}
		defer env.Close()

		// One batch at a time: state stores are single-writer.
		r := buildRouter(ctx, env, semaphore.NewWeighted(1))

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			_ = srv.Shutdown(context.Background())
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// buildRouter wires the HTTP surface. runGuard serializes triggered runs;
// ctx bounds the async batch, not the request.
func buildRouter(ctx context.Context, env *pipelineEnv, runGuard *semaphore.Weighted) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/leads/state", func(w http.ResponseWriter, req *http.Request) {
		states, err := env.Store.Load(req.Context())
		if err != nil {
			zap.L().Error("state load failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "state unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"states": states})
	})

	r.Post("/runs", func(w http.ResponseWriter, req *http.Request) {
		if !runGuard.TryAcquire(1) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "a run is already in progress"})
			return
		}

		go func() {
			defer runGuard.Release(1)
			summary, err := runBatch(ctx, env)
			if err != nil {
				zap.L().Error("triggered run failed", zap.Error(err))
				return
			}
			zap.L().Info("triggered run complete", zap.Int("sent", summary.Sent))
		}()

		writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
