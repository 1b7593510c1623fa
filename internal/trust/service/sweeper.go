package service

import (
	"context"
	"time"

	"trustgate/internal/scoring"
	"trustgate/internal/trust/models"
	usermodels "trustgate/internal/users/models"
	dErrors "trustgate/pkg/domain-errors"
	"trustgate/pkg/requestcontext"
)

// StartSweep applies the time_based action to every approved user on each
// tick until ctx is cancelled. Per-user failures are logged and skipped; only
// a failure to list users is logged as a failed sweep.
func (s *Service) StartSweep(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.SweepAt(ctx, time.Now().UTC()); err != nil {
				s.logger.ErrorContext(ctx, "trust sweep failed", "error", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// SweepAt runs one time_based pass as of now.
// Exported for testability; the background loop passes wall-clock time.
func (s *Service) SweepAt(ctx context.Context, now time.Time) (models.SweepResult, error) {
	ctx = requestcontext.WithTime(ctx, now)

	users, err := s.users.ListByStatus(ctx, usermodels.StatusApproved)
	if err != nil {
		return models.SweepResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list approved users")
	}

	result := models.SweepResult{Scanned: len(users)}
	for _, u := range users {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		adj, err := s.UpdateScore(ctx, u.ID, scoring.ActionTimeBased, nil)
		if err != nil {
			result.Failed++
			s.logger.WarnContext(ctx, "time_based adjustment failed",
				"user_id", u.ID,
				"error", err,
			)
			continue
		}
		if adj.Score != adj.Previous {
			result.Adjusted++
		}
	}

	s.metrics.IncrementSweep(result.Adjusted, result.Failed)
	s.logger.InfoContext(ctx, "trust sweep complete",
		"scanned", result.Scanned,
		"adjusted", result.Adjusted,
		"failed", result.Failed,
	)
	return result, nil
}
