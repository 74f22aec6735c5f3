package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const sweepTimeout = time.Minute

// ExpiredTokenSweeper is the slice of the token service the sweeper drives.
type ExpiredTokenSweeper interface {
	SweepExpired(ctx context.Context) (int, error)
}

// TokenSweeper periodically deletes expired access tokens on a cron schedule.
type TokenSweeper struct {
	cron    *cron.Cron
	tokens  ExpiredTokenSweeper
	log     zerolog.Logger
	mu      sync.Mutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewTokenSweeper validates schedule (a five-field cron expression or a
// descriptor such as "@every 1h") and registers the sweep job.
func NewTokenSweeper(schedule string, tokens ExpiredTokenSweeper, log zerolog.Logger) (*TokenSweeper, error) {
	s := &TokenSweeper{
		cron:   cron.New(),
		tokens: tokens,
		log:    log,
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	if _, err := s.cron.AddFunc(schedule, func() { s.RunOnce(s.ctx) }); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start begins running the sweep on schedule.
func (s *TokenSweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.cron.Start()
	s.running = true
	s.log.Info().Msg("token sweeper started")
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *TokenSweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.cancel()
	<-s.cron.Stop().Done()
	s.running = false
	s.log.Info().Msg("token sweeper stopped")
}

// RunOnce performs a single sweep and returns how many tokens were removed.
func (s *TokenSweeper) RunOnce(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()

	n, err := s.tokens.SweepExpired(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("token sweep failed")
		return 0
	}
	s.log.Info().Int("removed", n).Msg("expired tokens swept")
	return n
}
