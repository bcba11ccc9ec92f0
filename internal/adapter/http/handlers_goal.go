package adapthttp

import (
	"net/http"
)

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	u := userFrom(r.Context())
	goal, err := s.goals.GetGoal(r.Context(), u.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"goal": goal})
}

func (s *Server) handleSetGoal(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Weight float64 `json:"weight"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	u := userFrom(r.Context())
	id, err := s.goals.SetGoal(r.Context(), u.ID, body.Weight)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "goal": body.Weight})
}
