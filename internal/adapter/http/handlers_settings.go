package adapthttp

import (
	"net/http"
)

func (s *Server) handleGetPhone(w http.ResponseWriter, r *http.Request) {
	phone, err := s.settings.PhoneNumber(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"phone": phone})
}

func (s *Server) handleSetPhone(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Phone string `json:"phone"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	ctx := r.Context()
	if err := s.settings.SetPhoneNumber(ctx, body.Phone); err != nil {
		writeServiceError(w, r, err)
		return
	}
	phone, err := s.settings.PhoneNumber(ctx)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.writePermission(w, r, map[string]any{"phone": phone})
}

func (s *Server) handleGetSMSPermission(w http.ResponseWriter, r *http.Request) {
	s.writePermission(w, r, map[string]any{})
}

func (s *Server) handleSetSMSPermission(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Granted bool `json:"granted"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.settings.SetSMSPermission(r.Context(), body.Granted); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.writePermission(w, r, map[string]any{})
}

func (s *Server) writePermission(w http.ResponseWriter, r *http.Request, out map[string]any) {
	state, err := s.settings.SMSPermissionState(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out["smsPermission"] = state
	out["smsGranted"] = s.settings.SMSGranted(r.Context())
	writeJSON(w, http.StatusOK, out)
}
