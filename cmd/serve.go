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
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/civiclens/enrich-cli/internal/limiter"
	"github.com/civiclens/enrich-cli/internal/model"
)

var servePort int

// enricher is the slice of the pipeline the HTTP handlers need.
type enricher interface {
	EnrichPerson(ctx context.Context, id int64, conc int) (*model.Person, error)
	EnrichLegislation(ctx context.Context, id int64, conc int) (*model.Legislation, error)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the enrichment HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(env.Pipeline, cfg.Pipeline.Concurrency),
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

func newRouter(p enricher, defaultConcurrency int) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Concurrency"},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/v1/enrich", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Kind string `json:"kind"`
			ID   int64  `json:"id"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		if body.ID <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "id is required"})
			return
		}
		if body.Kind != "person" && body.Kind != "bill" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "kind must be person or bill"})
			return
		}

		conc := limiter.Resolve(
			req.Header.Get("X-Concurrency"),
			req.URL.Query().Get("concurrency"),
			defaultConcurrency,
		)
		runID := uuid.NewString()

		// Enrichment runs in the background so the caller is not held for
		// the full fetch fan-out.
		go func() {
			log := zap.L().With(
				zap.String("run_id", runID),
				zap.String("kind", body.Kind),
				zap.Int64("id", body.ID),
			)

			var err error
			if body.Kind == "person" {
				_, err = p.EnrichPerson(context.Background(), body.ID, conc)
			} else {
				_, err = p.EnrichLegislation(context.Background(), body.ID, conc)
			}
			if err != nil {
				log.Error("enrichment failed", zap.Error(err))
				return
			}
			log.Info("enrichment complete")
		}()

		writeJSON(w, http.StatusAccepted, map[string]any{
			"status":      "accepted",
			"run_id":      runID,
			"kind":        body.Kind,
			"id":          body.ID,
			"concurrency": conc,
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
