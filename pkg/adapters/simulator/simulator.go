package simulator

import (
	_ "embed"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"sync"

	"github.com/aretw0/telelab/internal/logging"
	"github.com/aretw0/telelab/pkg/domain"
	"github.com/getkin/kin-openapi/routers"
	"github.com/go-chi/chi/v5"
)

//go:embed openapi.yaml
var rawSpec []byte

// Spec returns the embedded OpenAPI document.
func Spec() []byte {
	return slices.Clone(rawSpec)
}

// TruthFunc computes the output bits for one input row.
type TruthFunc func(input domain.Row, outputs int) []string

// DefaultTruth sets output j when the number of high inputs is not a multiple of j+2.
// The first output is the parity of the row.
func DefaultTruth(input domain.Row, outputs int) []string {
	high := 0
	for _, bit := range input {
		if bit == "1" {
			high++
		}
	}
	out := make([]string, outputs)
	for j := range out {
		out[j] = "0"
		if high%(j+2) != 0 {
			out[j] = "1"
		}
	}
	return out
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithLogger configures a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Simulator) {
		s.logger = logger
	}
}

// WithTruthFunc replaces DefaultTruth.
func WithTruthFunc(fn TruthFunc) Option {
	return func(s *Simulator) {
		s.truth = fn
	}
}

// WithRowsPerRead reveals n more rows on each GET /truth_table. Zero reveals all at once.
func WithRowsPerRead(n int) Option {
	return func(s *Simulator) {
		s.rowsPerRead = n
	}
}

// WithUser restricts login to the given accounts. Without users any valid login succeeds.
func WithUser(email, password string) Option {
	return func(s *Simulator) {
		s.users[email] = password
	}
}

// WithExperiment adds or replaces a descriptor.
func WithExperiment(exp domain.Experiment) Option {
	return func(s *Simulator) {
		s.experiments[exp.ID] = exp
	}
}

// Simulator is an in-memory device and backend. It implements http.Handler.
type Simulator struct {
	logger      *slog.Logger
	truth       TruthFunc
	rowsPerRead int
	handler     http.Handler
	router      routers.Router

	mu sync.Mutex

	// device
	module     int
	experiment *domain.ExperimentConfig
	computing  bool
	revealed   int
	relays     [domain.RelayCount]bool

	// backend
	users       map[string]string
	tokens      map[string]int
	experiments map[int]domain.Experiment
	submissions []domain.Submission
	failures    map[string]int
}

// New creates a simulator with descriptors for every experiment of the default catalog.
func New(opts ...Option) (*Simulator, error) {
	s := &Simulator{
		logger:      logging.NewNop(),
		truth:       DefaultTruth,
		users:       make(map[string]string),
		tokens:      make(map[string]int),
		experiments: defaultExperiments(),
		failures:    make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}

	router, err := loadRouter()
	if err != nil {
		return nil, err
	}
	s.router = router

	r := chi.NewRouter()
	r.Use(enableCORS, s.injectFailures, s.validate)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(rawSpec)
	})

	r.Post("/set_module", s.setModule)
	r.Post("/set_experiment", s.setExperiment)
	r.Post("/update_truth_table", s.updateTruthTable)
	r.Get("/truth_table", s.truthTable)
	r.Post("/output/relay/{n}", s.setRelay)
	r.Get("/input/all", s.inputs)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/authenticate", s.authenticate)
		r.Post("/auth/login", s.login)
		r.Get("/experiment/{id}", s.getExperiment)
		r.Get("/experiments/{id}", s.getExperiment)
		r.Post("/experiment/{id}", s.submit)
	})

	s.handler = r
	return s, nil
}

func (s *Simulator) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func defaultExperiments() map[int]domain.Experiment {
	exps := make(map[int]domain.Experiment)
	for _, m := range domain.DefaultCatalog().Modules {
		for _, id := range m.Experiments {
			exps[id] = domain.Experiment{
				ID:      id,
				Name:    fmt.Sprintf("%s / Experiment %d", m.Name, id),
				Inputs:  2 + (id-1)%3,
				Outputs: 2,
			}.WithDefaultLabels()
		}
	}
	return exps
}

// Fail makes METHOD path answer with code until Recover is called.
func (s *Simulator) Fail(method, path string, code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = code
}

// Recover clears a failure set by Fail.
func (s *Simulator) Recover(method, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, method+" "+path)
}

// IssueToken creates a session token for module without going through login.
func (s *Simulator) IssueToken(module int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueTokenLocked(module)
}

// Submissions returns the results received so far.
func (s *Simulator) Submissions() []domain.Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.submissions)
}

// Relays returns the relay states, relay 1 first.
func (s *Simulator) Relays() []bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.relays[:])
}

// ExperimentConfig returns the configuration the device is armed with.
func (s *Simulator) ExperimentConfig() (domain.ExperimentConfig, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.experiment == nil {
		return domain.ExperimentConfig{}, false
	}
	return *s.experiment, true
}

// Module returns the module set by POST /set_module.
func (s *Simulator) Module() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.module
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Simulator) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		code, ok := s.failures[r.Method+" "+r.URL.Path]
		s.mu.Unlock()
		if ok {
			writeError(w, code, "injected failure")
			return
		}
		next.ServeHTTP(w, r)
	})
}
