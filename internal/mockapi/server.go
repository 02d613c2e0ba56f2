package mockapi

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"navfinder/internal/domain"
)

// historyRow is the wire shape of a history entry. The reference service
// emits the NAV as a JSON number.
type historyRow struct {
	Date string      `json:"date"`
	NAV  json.Number `json:"nav"`
}

// Handler returns the router serving the catalog.
func (c *Catalog) Handler(log *slog.Logger) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "mockapi")

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(requestLogger(log))
	r.Use(corsMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Get("/search", c.handleSearch)
		r.Get("/history", c.handleHistory)
	})
	r.Get("/download", c.handleDownload)
	return r
}

func (c *Catalog) handleSearch(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, c.Search(r.URL.Query().Get("q")))
}

func (c *Catalog) handleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	code := q.Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "Scheme code required")
		return
	}
	records := c.History(code, domain.DateRange{Start: q.Get("start"), End: q.Get("end")})
	rows := make([]historyRow, len(records))
	for i, rec := range records {
		rows[i] = historyRow{Date: rec.Date, NAV: json.Number(rec.NAV)}
	}
	writeJSON(w, rows)
}

func (c *Catalog) handleDownload(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	code := q.Get("code")
	if code == "" {
		http.Error(w, "Scheme code required", http.StatusBadRequest)
		return
	}
	name := q.Get("name")
	if name == "" {
		name = "fund_data"
	}
	records := c.History(code, domain.DateRange{Start: q.Get("start"), End: q.Get("end")})
	if len(records) == 0 {
		http.Error(w, "No data found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s_nav_history.csv", name))
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"date", "nav"})
	for _, rec := range records {
		_ = cw.Write([]string{rec.Date, rec.NAV.String()})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		slog.Error("writing CSV response", "error", err)
	}
}

func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"elapsed", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Disposition")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// Server is a running fixture service.
type Server struct {
	URL string

	srv  *http.Server
	done chan error
	log  *slog.Logger
}

// Start serves the catalog on addr ("127.0.0.1:0" picks a free port).
func Start(c *Catalog, addr string, log *slog.Logger) (*Server, error) {
	if log == nil {
		log = slog.Default()
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", addr, err)
	}
	s := &Server{
		URL: "http://" + ln.Addr().String(),
		srv: &http.Server{
			Handler:      c.Handler(log),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		done: make(chan error, 1),
		log:  log.With("component", "mockapi"),
	}
	go func() {
		err := s.srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		s.done <- err
	}()
	s.log.Info("fixture service listening", "url", s.URL)
	return s, nil
}

// Shutdown stops the server and waits for the serve loop to exit.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.srv.Shutdown(ctx); err != nil {
		return err
	}
	return <-s.done
}
