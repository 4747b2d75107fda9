package simulator

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/aretw0/telelab/pkg/domain"
	"github.com/aretw0/telelab/pkg/truthtable"
	"github.com/go-chi/chi/v5"
)

func (s *Simulator) setModule(w http.ResponseWriter, r *http.Request) {
	var cfg domain.ModuleConfig
	if err := decodeConfig(r, &cfg); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, ok := domain.DefaultCatalog().Lookup(cfg.Module); !ok {
		writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("unknown module %d", cfg.Module))
		return
	}

	s.mu.Lock()
	s.module = cfg.Module
	s.mu.Unlock()

	s.logger.Info("Device module set", "module", cfg.Module)
	writeMessage(w, http.StatusOK, "module set")
}

func (s *Simulator) setExperiment(w http.ResponseWriter, r *http.Request) {
	var cfg domain.ExperimentConfig
	if err := decodeConfig(r, &cfg); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := truthtable.Check(cfg.NumInputs); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if cfg.NumOutputs < 0 {
		writeError(w, http.StatusUnprocessableEntity, domain.ErrInvalidInputCount.Error())
		return
	}

	s.mu.Lock()
	s.experiment = &cfg
	s.computing = false
	s.revealed = 0
	s.mu.Unlock()

	s.logger.Info("Device experiment set", "inputs", cfg.NumInputs, "outputs", cfg.NumOutputs, "experiment", cfg.NumExperiments)
	writeMessage(w, http.StatusOK, "experiment set")
}

func (s *Simulator) updateTruthTable(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.experiment == nil {
		writeError(w, http.StatusConflict, "experiment not configured")
		return
	}
	s.computing = true
	s.revealed = 0
	writeMessage(w, http.StatusOK, "updating truth table")
}

func (s *Simulator) truthTable(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	rows := [][]string{}
	if s.computing && s.experiment != nil {
		total := 1 << s.experiment.NumInputs
		if s.rowsPerRead <= 0 {
			s.revealed = total
		} else {
			s.revealed = min(total, s.revealed+s.rowsPerRead)
		}
		rows = s.computeLocked(s.revealed)
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"truth_table": rows})
}

func (s *Simulator) computeLocked(n int) [][]string {
	seq, err := truthtable.Combinations(s.experiment.NumInputs)
	if err != nil {
		return [][]string{}
	}
	rows := make([][]string, 0, n)
	for i, in := range seq {
		if i >= n {
			break
		}
		rows = append(rows, s.truth(in, s.experiment.NumOutputs))
	}
	return rows
}

func (s *Simulator) setRelay(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil || n < 1 || n > domain.RelayCount {
		writeError(w, http.StatusBadRequest, "invalid relay")
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var on bool
	switch r.PostForm.Get("state") {
	case "on":
		on = true
	case "off":
	default:
		writeError(w, http.StatusBadRequest, "state must be on or off")
		return
	}

	s.mu.Lock()
	s.relays[n-1] = on
	s.mu.Unlock()
	writeMessage(w, http.StatusOK, "relay set")
}

// inputs mirrors the relays, as on a bench with outputs looped back to inputs.
func (s *Simulator) inputs(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	pins := make([]int, domain.RelayCount)
	for i, on := range s.relays {
		if on {
			pins[i] = 1
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"input": pins})
}

var errMissingConfig = errors.New("missing config field")

func decodeConfig(r *http.Request, out any) error {
	if err := r.ParseForm(); err != nil {
		return err
	}
	raw := r.PostForm.Get("config")
	if raw == "" {
		return errMissingConfig
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"message": msg})
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeMessage(w, code, msg)
}
