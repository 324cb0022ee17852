package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/openfield/crewmarket/pkg/repository"
)

// Sweeper is the scheduled collaborator that expires stale Open requests.
// This lives outside the engine's state machine on purpose: the core never
// times requests out on its own. Each tick enqueues one sweep job so the
// actual cancels go through the queue's retry discipline.
type Sweeper struct {
	pool     *WorkerPool
	maxAge   time.Duration
	interval time.Duration
	logger   *slog.Logger
	stop     chan struct{}
	wg       sync.WaitGroup
}

func NewSweeper(pool *WorkerPool, maxAge, interval time.Duration, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &Sweeper{pool: pool, maxAge: maxAge, interval: interval, logger: logger, stop: make(chan struct{})}
}

// Start begins the schedule. A non-positive max age disables sweeping.
func (s *Sweeper) Start(ctx context.Context) {
	if s.maxAge <= 0 {
		return
	}
	s.wg.Add(1)
	go s.run(ctx)
}

func (s *Sweeper) Stop() {
	close(s.stop)
	s.wg.Wait()
}

func (s *Sweeper) run(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().UTC().Add(-s.maxAge).Unix()
			if _, err := s.pool.Enqueue(ctx, TypeStaleSweep, map[string]int64{"cutoff": cutoff}, 200, 3); err != nil {
				s.logger.Error("enqueue stale sweep", "err", err)
			}
		}
	}
}

// StaleSweepHandler cancels aged-out Open requests via the same conditional
// writes the engine uses, so a sweep can never clobber a request that was
// assigned or resolved in the meantime.
func StaleSweepHandler(jobRepo repository.JobRequestRepo, svcRepo repository.ServiceRequestRepo, logger *slog.Logger) Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, j *Job) error {
		var p struct {
			Cutoff int64 `json:"cutoff"`
		}
		if err := json.Unmarshal(j.Payload, &p); err != nil {
			return fmt.Errorf("decode sweep payload: %w", err)
		}

		nJobs, err := jobRepo.CancelStaleJobRequests(ctx, p.Cutoff)
		if err != nil {
			return err
		}
		nReqs, err := svcRepo.CancelStaleServiceRequests(ctx, p.Cutoff)
		if err != nil {
			return err
		}
		if nJobs > 0 || nReqs > 0 {
			logger.Info("stale requests swept",
				slog.Int64("job_requests", nJobs),
				slog.Int64("service_requests", nReqs),
			)
		}
		return nil
	}
}
