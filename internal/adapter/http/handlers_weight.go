package adapthttp

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"weighttracker/internal/domain"
)

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	u := userFrom(r.Context())
	limit := intQuery(r, "limit", domain.MaxRecentEntries)

	items, err := s.weight.Recent(r.Context(), u.ID, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleLogEntry(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Weight float64 `json:"weight"`
		Date   string  `json:"date"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(body.Date) == "" {
		body.Date = localDayString(time.Now())
	}

	u := userFrom(r.Context())
	res, err := s.tracker.LogWeight(r.Context(), u.ID, body.Weight, body.Date)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: entry id", domain.ErrInvalidInput))
		return
	}

	u := userFrom(r.Context())
	n, err := s.weight.Delete(r.Context(), u.ID, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": n})
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	u := userFrom(r.Context())
	entry, err := s.weight.LatestEntry(r.Context(), u.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entry": entry})
}
