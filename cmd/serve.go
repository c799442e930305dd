package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/momentum-leads/rvprospector/internal/pipeline"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for lead runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.RealIP)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet, http.MethodPost},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))

		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Post("/search", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				Email         string `json:"email"`
				FullName      string `json:"full_name"`
				Location      string `json:"location"`
				NearMe        bool   `json:"near_me"`
				Target        int    `json:"target"`
				IncludeChains bool   `json:"include_chains"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
				return
			}
			if body.Email == "" {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email is required"})
				return
			}

			res, err := env.Pipeline.Run(req.Context(), pipeline.RunRequest{
				Email:              body.Email,
				FullName:           body.FullName,
				Location:           body.Location,
				NearMe:             body.NearMe,
				Requested:          body.Target,
				AvoidConglomerates: !body.IncludeChains,
			})
			if err != nil {
				zap.L().Error("search run failed",
					zap.String("email", body.Email),
					zap.Error(err),
				)
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "run failed"})
				return
			}

			writeJSON(w, http.StatusOK, map[string]any{
				"run_id":       res.RunID,
				"quota_status": res.QuotaStatus,
				"checked":      res.Checked,
				"rows":         res.Rows,
				"warnings":     res.Warnings,
			})
		})

		r.Get("/history", func(w http.ResponseWriter, req *http.Request) {
			email := req.URL.Query().Get("caller")
			if email == "" {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "caller is required"})
				return
			}
			limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

			records, err := env.Store.ListHistory(req.Context(), email, limit)
			if err != nil {
				zap.L().Error("history lookup failed", zap.String("email", email), zap.Error(err))
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "lookup failed"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"history": records})
		})

		r.Get("/status", func(w http.ResponseWriter, req *http.Request) {
			email := req.URL.Query().Get("caller")
			if email == "" {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "caller is required"})
				return
			}

			unlimited, err := env.Store.IsUnlimited(req.Context(), email)
			if err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "lookup failed"})
				return
			}
			used, err := env.Store.LeadsUsedToday(req.Context(), email, time.Now())
			if err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "lookup failed"})
				return
			}
			writeJSON(w, http.StatusOK, statusPayload(email, unlimited, used, cfg.Quota.DailyLimit))
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// statusPayload shapes the /status response. Unlimited accounts omit the
// remaining/limit fields so a zero remaining cannot be read as an exhausted
// allowance.
func statusPayload(caller string, unlimited bool, used, limit int) map[string]any {
	payload := map[string]any{
		"caller":    caller,
		"unlimited": unlimited,
		"used":      used,
	}
	if unlimited {
		return payload
	}
	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}
	payload["remaining"] = remaining
	payload["limit"] = limit
	return payload
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
