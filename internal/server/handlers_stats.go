package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/simonvc/moneymanager/internal/ledger"
	"github.com/simonvc/moneymanager/internal/stats"
)

// statsQuery reads dimension, date and shift. shift moves the period that
// many steps from date, negative for earlier.
func (s *Server) statsQuery(r *http.Request) (stats.Dimension, time.Time, error) {
	q := r.URL.Query()
	dim, err := stats.ParseDimension(q.Get("dimension"))
	if err != nil {
		return "", time.Time{}, err
	}
	ref, err := s.timeParam(q.Get("date"), false)
	if err != nil {
		return "", time.Time{}, err
	}
	if ref.IsZero() {
		ref = s.now()
	}
	ref = ref.In(s.loc)
	if v := q.Get("shift"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return "", time.Time{}, fmt.Errorf("%w: shift must be an integer", ledger.ErrValidation)
		}
		if ref, err = stats.Shift(dim, ref, n); err != nil {
			return "", time.Time{}, err
		}
	}
	return dim, ref, nil
}

func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	dim, ref, err := s.statsQuery(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	sum, err := s.stats.Summary(r.Context(), dim, ref)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// watchStats streams the summary as server-sent events: one immediately and
// another after every change that affects it. Only the newest pending
// summary is kept for a slow reader.
func (s *Server) watchStats(w http.ResponseWriter, r *http.Request) {
	dim, ref, err := s.statsQuery(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	updates := make(chan *stats.Summary, 1)
	push := func(sum *stats.Summary) {
		for {
			select {
			case updates <- sum:
				return
			default:
			}
			select {
			case <-updates:
			default:
			}
		}
	}

	ctx := r.Context()
	initial, cancel, err := s.stats.Watch(ctx, dim, ref, func(sum *stats.Summary, err error) {
		if err != nil {
			s.reporter.Report(ctx, err)
			return
		}
		push(sum)
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	send := func(sum *stats.Summary) bool {
		data, err := json.Marshal(sum)
		if err != nil {
			s.log.Error("encode stats event", "error", err)
			return false
		}
		if _, err := fmt.Fprintf(w, "event: summary\ndata: %s\n\n", data); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	if !send(initial) {
		return
	}
	keepalive := time.NewTicker(30 * time.Second)
	defer keepalive.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case sum := <-updates:
			if !send(sum) {
				return
			}
		case <-keepalive.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
