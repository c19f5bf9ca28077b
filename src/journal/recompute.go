package journal

import (
	"context"
	"errors"
	"fmt"

	logger "github.com/sirupsen/logrus"

	"tradepulse/src/model"
	"tradepulse/src/notify"
	"tradepulse/src/repository"
	"tradepulse/src/risk"
)

// RecomputeFilter selects the pulses a maintenance recompute touches. The zero
// value selects every pulse.
type RecomputeFilter struct {
	OwnerID uint
	PulseID string
}

// RecomputeStats reruns the aggregator over every trade of the pulse.
func (s *Service) RecomputeStats(ctx context.Context, user *model.User, pulseID string) (*model.Pulse, error) {
	pulse, err := s.GetPulse(ctx, user, pulseID)
	if err != nil {
		return nil, err
	}
	if err := s.recompute(ctx, pulse); err != nil {
		return nil, err
	}
	return pulse, nil
}

// RecomputeAll recomputes every pulse in the system. Admins only.
func (s *Service) RecomputeAll(ctx context.Context, user *model.User) (int, error) {
	if err := s.policy.CanAdminister(user); err != nil {
		return 0, err
	}
	return s.RecomputeMatching(ctx, RecomputeFilter{})
}

// RecomputeMatching recomputes the pulses selected by filter without an
// ownership check. It keeps going past individual failures and returns how
// many pulses were written together with the joined errors.
func (s *Service) RecomputeMatching(ctx context.Context, filter RecomputeFilter) (int, error) {
	pulses, err := s.selectPulses(ctx, filter)
	if err != nil {
		return 0, err
	}

	var errs []error
	done := 0
	for i := range pulses {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := s.recompute(ctx, &pulses[i]); err != nil {
			errs = append(errs, fmt.Errorf("pulse %d: %w", pulses[i].ID, err))
			continue
		}
		done++
	}

	logger.WithFields(map[string]interface{}{
		"module":   "journal",
		"op":       "RecomputeMatching",
		"selected": len(pulses),
		"written":  done,
	}).Info("Recompute finished")

	return done, errors.Join(errs...)
}

func (s *Service) selectPulses(ctx context.Context, filter RecomputeFilter) ([]model.Pulse, error) {
	switch {
	case filter.PulseID != "":
		pulse, err := s.pulses.FindByOwnerAndPulseID(ctx, filter.OwnerID, filter.PulseID)
		if err != nil {
			return nil, fmt.Errorf("find pulse: %w", err)
		}
		if pulse == nil {
			return nil, nil
		}
		return []model.Pulse{*pulse}, nil
	case filter.OwnerID != 0:
		pulses, _, err := s.pulses.Search(ctx, repository.PulseSearchOptions{OwnerID: filter.OwnerID})
		if err != nil {
			return nil, fmt.Errorf("list pulses: %w", err)
		}
		return pulses, nil
	default:
		pulses, err := s.pulses.FindAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("list pulses: %w", err)
		}
		return pulses, nil
	}
}

// recompute reads every trade of pulse, writes the aggregated snapshot back
// and tells the owner. The write carries no version check.
func (s *Service) recompute(ctx context.Context, pulse *model.Pulse) error {
	trades, err := s.trades.ListByPulse(ctx, pulse.ID)
	if err != nil {
		return fmt.Errorf("load trades: %w", err)
	}

	result := risk.Evaluate(risk.LimitsFor(pulse), trades)
	risk.Apply(pulse, result, s.now())

	if err := s.pulses.SaveStats(ctx, pulse); err != nil {
		return storageError(err, "pulse not found")
	}

	stats := pulse.Stats
	s.publish(pulse.OwnerID, notify.Event{
		Type:           notify.EventStatsUpdated,
		PulseID:        pulse.PulseID,
		Status:         pulse.Status,
		Stats:          &stats,
		RuleViolations: pulse.RuleViolations,
	})
	return nil
}

// recomputeAfterWrite runs after a write that already succeeded. A failure
// leaves stale stats behind; it is recorded instead of returned.
func (s *Service) recomputeAfterWrite(ctx context.Context, pulse *model.Pulse, method string) {
	if err := s.recompute(ctx, pulse); err != nil {
		s.capture(ctx, method, "warn", err, map[string]interface{}{
			"pulse_ref": pulse.ID,
			"pulse_id":  pulse.PulseID,
		})
	}
}
