package service

import (
	"context"
	"time"

	"github.com/lshigami/Classtrail/config"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

const sweepTimeout = 2 * time.Minute

// EvaluationSweeper periodically re-dispatches code answers whose evaluation never landed,
// for instance because the process stopped while the evaluator was running.
type EvaluationSweeper struct {
	cron       *cron.Cron
	grading    GradingService
	schedule   string
	staleAfter time.Duration
}

func NewEvaluationSweeper(cfg *config.Config, grading GradingService) *EvaluationSweeper {
	return &EvaluationSweeper{
		cron:       cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		grading:    grading,
		schedule:   cfg.Grading.SweeperSchedule,
		staleAfter: cfg.Grading.SweeperStaleAfter,
	}
}

func (s *EvaluationSweeper) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.Sweep); err != nil {
		return err
	}
	s.cron.Start()
	log.Info().Str("schedule", s.schedule).Dur("staleAfter", s.staleAfter).Msg("Evaluation sweeper started")
	return nil
}

// Stop waits for a running sweep to return or ctx to expire.
func (s *EvaluationSweeper) Stop(ctx context.Context) error {
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *EvaluationSweeper) Sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	dispatched, err := s.grading.DispatchStale(ctx, s.staleAfter)
	if err != nil {
		log.Error().Err(err).Msg("Sweep: failed to list ungraded answers")
		return
	}
	if dispatched > 0 {
		log.Info().Int("dispatched", dispatched).Msg("Sweep: re-dispatched stale evaluations")
	}
}
