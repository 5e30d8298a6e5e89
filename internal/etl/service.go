package etl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/statsetl/internal/logging"
	"github.com/JonMunkholm/statsetl/internal/validation"
)

// ErrRunNotFound is returned for unknown or expired run ids.
var ErrRunNotFound = errors.New("run not found")

// RunPhase is the lifecycle phase of an async run.
type RunPhase string

const (
	PhaseQueued     RunPhase = "queued"
	PhaseReading    RunPhase = "reading"
	PhaseValidating RunPhase = "validating"
	PhaseLoading    RunPhase = "loading"
	PhaseComplete   RunPhase = "complete"
	PhaseFailed     RunPhase = "failed"
	PhaseCancelled  RunPhase = "cancelled"
)

// Done reports whether the phase is terminal.
func (p RunPhase) Done() bool {
	return p == PhaseComplete || p == PhaseFailed || p == PhaseCancelled
}

// RunRequest describes a workbook to process.
type RunRequest struct {
	Path       string // workbook on local disk
	FileName   string // name shown to users; defaults to Path
	DryRun     bool
	RemoveFile bool // delete Path once the run ends
}

// RunStatus is the non-blocking view of a run.
type RunStatus struct {
	RunID          string     `json:"run_id"`
	FileName       string     `json:"file_name"`
	DryRun         bool       `json:"dry_run"`
	Phase          RunPhase   `json:"phase"`
	Sheet          string     `json:"sheet,omitempty"`
	SheetsTotal    int        `json:"sheets_total"`
	SheetsDone     int        `json:"sheets_done"`
	UnitsProcessed int        `json:"units_processed"`
	RowsCreated    int        `json:"rows_created"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
	Error          string     `json:"error,omitempty"`
}

// RunObserver is told about every finished run.
type RunObserver interface {
	RunFinished(res Result)
}

// ServiceConfig tunes the async service.
type ServiceConfig struct {
	MaxConcurrent int           // parallel runs
	MaxWait       time.Duration // wait for a free slot before ErrTooManyRuns
	RunTimeout    time.Duration // bound on a whole run
	Retention     time.Duration // how long finished runs stay queryable
}

// DefaultServiceConfig returns the service defaults.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		MaxConcurrent: DefaultMaxConcurrentRuns,
		MaxWait:       DefaultMaxWait,
		RunTimeout:    30 * time.Minute,
		Retention:     5 * time.Minute,
	}
}

type activeRun struct {
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.RWMutex
	status RunStatus
	result *Result
}

func (r *activeRun) update(fn func(*RunStatus)) {
	r.mu.Lock()
	fn(&r.status)
	r.mu.Unlock()
}

func (r *activeRun) snapshot() RunStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

// Service runs the orchestrator in the background and tracks each run by id.
type Service struct {
	orch     *Orchestrator
	limiter  *RunLimiter
	cfg      ServiceConfig
	logger   *slog.Logger
	observer RunObserver

	mu   sync.RWMutex
	runs map[string]*activeRun
}

// NewService creates a service. Zero config fields take their defaults.
func NewService(orch *Orchestrator, cfg ServiceConfig, logger *slog.Logger, observer RunObserver) *Service {
	def := DefaultServiceConfig()
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = def.RunTimeout
	}
	if cfg.Retention <= 0 {
		cfg.Retention = def.Retention
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		orch:     orch,
		limiter:  NewRunLimiter(cfg.MaxConcurrent, cfg.MaxWait),
		cfg:      cfg,
		logger:   logger,
		observer: observer,
		runs:     make(map[string]*activeRun),
	}
}

// StartRun acquires a run slot and processes req in the background. It
// returns the run id immediately, or ErrTooManyRuns when no slot frees up in
// time.
func (s *Service) StartRun(ctx context.Context, req RunRequest) (string, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		if req.RemoveFile {
			os.Remove(req.Path)
		}
		return "", err
	}

	runID := uuid.New().String()
	if req.FileName == "" {
		req.FileName = req.Path
	}

	// The run outlives the request that started it.
	runCtx, cancel := context.WithTimeout(logging.WithRunID(context.Background(), runID), s.cfg.RunTimeout)
	run := &activeRun{
		cancel: cancel,
		done:   make(chan struct{}),
		status: RunStatus{
			RunID:     runID,
			FileName:  req.FileName,
			DryRun:    req.DryRun,
			Phase:     PhaseQueued,
			StartedAt: time.Now(),
		},
	}

	s.mu.Lock()
	s.runs[runID] = run
	s.mu.Unlock()

	logger := logging.Enrich(logging.WithRunID(ctx, runID), s.logger).With("file", req.FileName)
	logger.Info("run started", "dry_run", req.DryRun)

	go func() {
		defer s.limiter.Release()
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic in run", "panic", r)
				res := newResult(req.DryRun)
				res.addError(LayerETL, defaultMessage.Code, validation.Context{}, "internal error: %v", r)
				res.finish()
				s.finish(runID, run, req, res)
			}
		}()

		res := s.orch.Run(runCtx, req.Path, req.DryRun, func(p Progress) {
			run.update(func(st *RunStatus) {
				st.Phase = p.Phase
				st.Sheet = p.Sheet
				st.SheetsTotal = p.SheetsTotal
				st.SheetsDone = p.SheetsDone
				st.UnitsProcessed = p.UnitsProcessed
				st.RowsCreated = p.RowsCreated
			})
		})
		s.finish(runID, run, req, res)
		logger.Info("run finished",
			"success", res.Success,
			"units_processed", res.UnitsProcessed,
			"rows", res.RowsCreated,
			"errors", len(res.Errors),
		)
	}()

	return runID, nil
}

func (s *Service) finish(runID string, run *activeRun, req RunRequest, res Result) {
	now := time.Now()
	run.mu.Lock()
	run.result = &res
	run.status.Phase = finalPhase(res)
	run.status.UnitsProcessed = res.UnitsProcessed
	run.status.RowsCreated = res.RowsCreated
	run.status.FinishedAt = &now
	if len(res.Errors) > 0 && run.status.Phase != PhaseComplete {
		run.status.Error = res.Errors[0].Message
	}
	run.mu.Unlock()

	if req.RemoveFile {
		if err := os.Remove(req.Path); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("remove upload failed", "run_id", runID, "path", req.Path, "error", err)
		}
	}
	if s.observer != nil {
		s.observer.RunFinished(res)
	}

	close(run.done)
	s.cleanup(runID, s.cfg.Retention)
}

func (s *Service) cleanup(runID string, delay time.Duration) {
	time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.runs, runID)
		s.mu.Unlock()
	})
}

func (s *Service) get(runID string) (*activeRun, error) {
	s.mu.RLock()
	run, ok := s.runs[runID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return run, nil
}

// Result blocks until the run finishes or ctx is done.
func (s *Service) Result(ctx context.Context, runID string) (*Result, error) {
	run, err := s.get(runID)
	if err != nil {
		return nil, err
	}
	select {
	case <-run.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	run.mu.RLock()
	defer run.mu.RUnlock()
	return run.result, nil
}

// Status returns the current status without blocking.
func (s *Service) Status(runID string) (RunStatus, error) {
	run, err := s.get(runID)
	if err != nil {
		return RunStatus{}, err
	}
	return run.snapshot(), nil
}

// Cancel stops a run at the next sheet boundary. A unit already loading
// still commits or rolls back on its own.
func (s *Service) Cancel(runID string) error {
	run, err := s.get(runID)
	if err != nil {
		return err
	}
	run.cancel()
	return nil
}

// ProcessAsync starts a run and returns a channel that yields its result.
func (s *Service) ProcessAsync(ctx context.Context, req RunRequest) (<-chan Result, error) {
	runID, err := s.StartRun(ctx, req)
	if err != nil {
		return nil, err
	}
	out := make(chan Result, 1)
	go func() {
		defer close(out)
		res, err := s.Result(context.Background(), runID)
		if err == nil && res != nil {
			out <- *res
		}
	}()
	return out, nil
}

// WaitForRuns blocks until every active run finishes or ctx is done.
func (s *Service) WaitForRuns(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// LimiterStatus reports run slot usage.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// Orchestrator returns the orchestrator runs execute on.
func (s *Service) Orchestrator() *Orchestrator {
	return s.orch
}
