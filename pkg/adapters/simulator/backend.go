package simulator

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/aretw0/telelab/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (s *Simulator) issueTokenLocked(module int) string {
	token := uuid.NewString()
	s.tokens[token] = module
	return token
}

func (s *Simulator) authenticate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Credentials string `json:"credentials"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Credentials == "" {
		writeError(w, http.StatusBadRequest, "credentials are required")
		return
	}

	s.mu.Lock()
	module := s.module
	token := s.issueTokenLocked(module)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		domain.KeyCredentials: token,
		domain.KeyModule:      module,
	})
}

func (s *Simulator) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email                string `json:"email"`
		Password             string `json:"password"`
		PasswordConfirmation string `json:"password_confirmation"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid login body")
		return
	}
	if body.Password != body.PasswordConfirmation {
		writeError(w, http.StatusUnprocessableEntity, "password confirmation does not match")
		return
	}
	if !strings.Contains(body.Email, "@") {
		writeError(w, http.StatusUnprocessableEntity, "email is invalid")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.users) > 0 {
		if pw, ok := s.users[body.Email]; !ok || pw != body.Password {
			writeError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"data": s.issueTokenLocked(s.module)})
}

func (s *Simulator) getExperiment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid experiment id")
		return
	}

	s.mu.Lock()
	exp, ok := s.experiments[id]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "experiment not found")
		return
	}
	writeJSON(w, http.StatusOK, exp)
}

func (s *Simulator) submit(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid experiment id")
		return
	}
	var sub domain.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeError(w, http.StatusBadRequest, "invalid submission body")
		return
	}
	if sub.ExperimentID != id {
		writeError(w, http.StatusUnprocessableEntity, "experimentId does not match path")
		return
	}

	s.mu.Lock()
	s.submissions = append(s.submissions, sub)
	s.mu.Unlock()

	s.logger.Info("Results stored", "experiment", id, "rows", len(sub.TruthTable))
	writeMessage(w, http.StatusCreated, "results stored")
}
