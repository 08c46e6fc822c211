package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/tarkovhub/overlay"
	overlayerrors "github.com/tarkovhub/overlay/pkg/errors"
	"github.com/tarkovhub/overlay/pkg/logging"
)

func newServeCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the artifact and reconciliation report over HTTP",
		Long: `Serve exposes the merged artifact, per-category corrected entities,
and the reconciliation report as a small JSON API.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			server := &http.Server{
				Addr:              addr,
				Handler:           newRouter(client),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logging.Info().Str("addr", addr).Msg("listening")
				errCh <- server.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-cmd.Context().Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "address to listen on")
	return cmd
}

func newRouter(client *overlay.Client) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/v1/artifact", func(w http.ResponseWriter, _ *http.Request) {
		artifact, err := client.Build(versionString)
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(artifact)
	})

	r.Get("/v1/report", func(w http.ResponseWriter, req *http.Request) {
		report, err := client.Check(req.Context(), req.URL.Query().Get("mode"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
	})

	r.Get("/v1/categories/{category}", func(w http.ResponseWriter, req *http.Request) {
		entities, err := client.Apply(req.Context(),
			chi.URLParam(req, "category"), req.URL.Query().Get("mode"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, entities)
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		next.ServeHTTP(ww, req)
		logging.Info().
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Err(err).Msg("encoding response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case overlayerrors.IsNotFound(err):
		status = http.StatusNotFound
	case overlayerrors.IsValidation(err):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, overlayerrors.ErrSourceUnavailable):
		status = http.StatusBadGateway
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
