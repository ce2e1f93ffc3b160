package main

import (
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

	"github.com/gearshift-group/lot-scraper/internal/extract"
	"github.com/gearshift-group/lot-scraper/internal/model"
	"github.com/gearshift-group/lot-scraper/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the extraction HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
		}))

		r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Post("/extract", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				Source string      `json:"source"`
				URL    string      `json:"url"`
				HTML   string      `json:"html"`
				Hints  model.Hints `json:"hints"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
				return
			}
			if body.Source == "" || body.HTML == "" {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "source and html are required"})
				return
			}

			driver, err := e.Driver(body.Source)
			if err != nil {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
				return
			}

			detail, reason, err := driver.Extract(req.Context(), model.RawPage{
				HTML:   body.HTML,
				Type:   model.PageTypeDetail,
				URL:    body.URL,
				Source: body.Source,
				Hints:  body.Hints,
			})
			if err != nil {
				writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
				return
			}
			if reason != extract.RejectNone {
				writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"rejected": string(reason)})
				return
			}

			if err := e.Store.UpsertListing(req.Context(), detail); err != nil {
				zap.L().Error("store failed", zap.String("url", detail.SourceURL), zap.Error(err))
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "persist failed"})
				return
			}
			writeJSON(w, http.StatusOK, detail)
		})

		r.Get("/listings", func(w http.ResponseWriter, req *http.Request) {
			q := req.URL.Query()
			filter := store.ListingFilter{
				Source: q.Get("source"),
				Status: model.AuctionStatus(q.Get("status")),
				Model:  q.Get("model"),
				Limit:  50,
			}
			listings, err := e.Store.ListListings(req.Context(), filter)
			if err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "query failed"})
				return
			}
			writeJSON(w, http.StatusOK, listings)
		})

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
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
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
