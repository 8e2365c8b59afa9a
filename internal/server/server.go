package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/runnerr0/ecodash/internal/storage"
	"github.com/runnerr0/ecodash/internal/tracker"
)

// Signal is one activity event from the browser extension: rawURL
// became the active page at the given millisecond epoch timestamp.
type Signal struct {
	URL  string `json:"url"`
	TSMs int64  `json:"ts_ms"`
}

// SignalBatch is the request body for POST /signals.
type SignalBatch struct {
	Signals []Signal `json:"signals"`
}

// stateResponse is the JSON body for GET /state, shaped the way the
// popup UI consumes persisted state.
type stateResponse struct {
	TotalCO2 float64           `json:"total_co2"`
	Services storage.Breakdown `json:"services"`
	Today    storage.Breakdown `json:"today"`
	ThisWeek storage.Breakdown `json:"this_week"`
	DayKey   string            `json:"day_key"`
	WeekKey  string            `json:"week_key"`
	Advisory *storage.Advisory `json:"advisory"`
}

// Server is the localhost daemon the browser extension posts activity
// signals to.
type Server struct {
	tracker *tracker.Tracker
	store   storage.Store
	address string
	server  *http.Server

	// The tracker assumes signals arrive one at a time; handlers may
	// run concurrently, so Observe calls are serialized here.
	trackMu sync.Mutex
}

// New creates a Server for the given tracker and store.
func New(tr *tracker.Tracker, store storage.Store, address string) *Server {
	return &Server{
		tracker: tr,
		store:   store,
		address: address,
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Write([]byte("ok"))
}

func (s *Server) handleSignals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}

	var batch SignalBatch
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if len(batch.Signals) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	s.trackMu.Lock()
	defer s.trackMu.Unlock()
	for _, sig := range batch.Signals {
		at := time.UnixMilli(sig.TSMs)
		if err := s.tracker.Observe(r.Context(), sig.URL, at); err != nil {
			log.Printf("server: failed to record signal: %v", err)
			http.Error(w, "failed to record signals", http.StatusInternalServerError)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "GET only", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	now := time.Now()
	day := storage.DayKey(now)
	week := storage.WeekKey(now)

	total, err := s.store.Totals(ctx)
	if err != nil {
		s.stateError(w, err)
		return
	}
	services, err := s.store.ServiceBreakdown(ctx)
	if err != nil {
		s.stateError(w, err)
		return
	}
	today, err := s.store.DailyBreakdown(ctx, day)
	if err != nil {
		s.stateError(w, err)
		return
	}
	thisWeek, err := s.store.WeeklyBreakdown(ctx, week)
	if err != nil {
		s.stateError(w, err)
		return
	}
	advisory, err := s.store.GetAdvisory(ctx)
	if err != nil {
		s.stateError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stateResponse{
		TotalCO2: total,
		Services: services,
		Today:    today,
		ThisWeek: thisWeek,
		DayKey:   day,
		WeekKey:  week,
		Advisory: advisory,
	})
}

func (s *Server) stateError(w http.ResponseWriter, err error) {
	log.Printf("server: failed to read state: %v", err)
	http.Error(w, "failed to read state", http.StatusInternalServerError)
}

// Handler returns the daemon's route mux.
func (s *Server) Handler() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/signals", s.handleSignals)
	mux.HandleFunc("/state", s.handleState)
	return mux
}

// Run serves until ctx is canceled, then shuts down gracefully. The
// open session, if any, is flushed so its tail is not lost.
func (s *Server) Run(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.address,
		Handler:      s.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("ecodash daemon listening on %s", s.address)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	log.Println("shutting down daemon...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	s.trackMu.Lock()
	defer s.trackMu.Unlock()
	if err := s.tracker.Flush(shutdownCtx, time.Now()); err != nil {
		log.Printf("server: failed to flush final session: %v", err)
	}

	log.Println("daemon exited")
	return nil
}
