package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

const (
	SweepSpec = "@every 30s"
	// RollSpec fires at midnight in the schedule location, when the horizon
	// moves by one day.
	RollSpec = "0 0 * * *"
)

// Jobs returns a cron scheduler running the liveness sweep and the daily
// horizon roll. The caller starts and stops it.
func (e *Engine) Jobs(ctx context.Context) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(e.opts.Location))

	if _, err := c.AddFunc(SweepSpec, func() {
		jctx, cancel := context.WithTimeout(ctx, 25*time.Second)
		defer cancel()
		if n, err := e.SweepLiveness(jctx); err != nil {
			log.Error().Err(err).Msg("liveness sweep failed")
		} else if n > 0 {
			log.Debug().Int("changed", n).Msg("liveness sweep")
		}
	}); err != nil {
		return nil, fmt.Errorf("schedule liveness sweep: %w", err)
	}

	if _, err := c.AddFunc(RollSpec, func() {
		if err := e.RollHorizon(ctx); err != nil {
			log.Error().Err(err).Msg("horizon roll failed")
		}
	}); err != nil {
		return nil, fmt.Errorf("schedule horizon roll: %w", err)
	}

	return c, nil
}
