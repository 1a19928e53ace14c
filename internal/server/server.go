// Package server exposes a small read-only HTTP surface over the store:
// run statistics, recent extraction attempts, and the stored series list.
package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/kholcomb/fredsync/internal/database"
)

// Server is the read-only status HTTP server.
type Server struct {
	db  *database.DB
	mux *http.ServeMux
}

// New creates a new Server.
func New(db *database.DB) *Server {
	s := &Server{db: db, mux: http.NewServeMux()}
	s.routes()
	return s
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/status", s.handleStatus)
	s.mux.HandleFunc("/api/extractions", s.handleExtractions)
	s.mux.HandleFunc("/api/series", s.handleSeries)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats, err := s.db.Stats()
	if err != nil {
		s.internalError(w, "reading stats", err)
		return
	}

	s.writeJSON(w, map[string]any{
		"series":            stats.SeriesCount,
		"observations":      stats.ObservationCount,
		"wide_rows":         stats.WideRowCount,
		"first_observation": stats.FirstObservation,
		"last_observation":  stats.LastObservation,
		"log_successes":     stats.LogSuccesses,
		"log_errors":        stats.LogErrors,
	})
}

func (s *Server) handleExtractions(w http.ResponseWriter, r *http.Request) {
	entries, err := s.db.RecentExtractions(50)
	if err != nil {
		s.internalError(w, "reading extraction log", err)
		return
	}

	type entry struct {
		SeriesID    string `json:"series_id"`
		ExtractedAt string `json:"extracted_at"`
		Status      string `json:"status"`
		Message     string `json:"message"`
	}
	out := make([]entry, len(entries))
	for i, e := range entries {
		out[i] = entry{e.SeriesID, e.ExtractedAt, e.Status, e.Message}
	}
	s.writeJSON(w, out)
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	series, err := s.db.SeriesList()
	if err != nil {
		s.internalError(w, "reading series list", err)
		return
	}

	type item struct {
		ID          string `json:"id"`
		Title       string `json:"title"`
		Frequency   string `json:"frequency"`
		Units       string `json:"units"`
		LastUpdated string `json:"last_updated"`
	}
	out := make([]item, len(series))
	for i, m := range series {
		out[i] = item{m.ID, m.Title, m.Frequency, m.Units, m.LastUpdated}
	}
	s.writeJSON(w, out)
}

func (s *Server) writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("encoding response: %v", err)
	}
}

func (s *Server) internalError(w http.ResponseWriter, what string, err error) {
	log.Printf("%s: %v", what, err)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

// Serve starts the HTTP server on the given port.
func Serve(db *database.DB, port int) error {
	srv := New(db)

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	log.Printf("Status server listening on http://%s", addr)
	return http.ListenAndServe(addr, srv.Handler())
}
