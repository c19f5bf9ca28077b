package journal

import (
	"context"
	"fmt"
	"strings"

	logger "github.com/sirupsen/logrus"

	"tradepulse/src/apperr"
	"tradepulse/src/model"
	"tradepulse/src/notify"
	"tradepulse/src/repository"
	"tradepulse/src/risk"
)

// PulseFilter narrows ListPulses.
type PulseFilter struct {
	Status   *string
	Page     int
	PageSize int
}

// CreatePulse validates the limits, rejects a name the user already uses and
// stores a new active pulse. The name check is a plain read before the insert.
func (s *Service) CreatePulse(ctx context.Context, user *model.User, in model.CreatePulsePayload) (*model.Pulse, error) {
	if user == nil {
		return nil, apperr.Unauthorized("authentication required")
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation("pulse name is required")
	}
	if in.AccountSize == nil {
		return nil, apperr.Validation("account size is required")
	}

	limits := risk.Limits{
		AccountSize:       *in.AccountSize,
		MaxRiskPerTrade:   in.MaxRiskPerTrade,
		MaxDailyRisk:      in.MaxDailyRisk,
		MaxDailyDrawdown:  in.MaxDailyDrawdown,
		MaxWeeklyDrawdown: in.MaxWeeklyDrawdown,
		MaxTotalDrawdown:  in.MaxTotalDrawdown,
	}
	if err := limits.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.pulses.ExistsByName(ctx, user.ID, name)
	if err != nil {
		return nil, fmt.Errorf("check pulse name: %w", err)
	}
	if exists {
		return nil, apperr.Duplicate(fmt.Sprintf("a pulse named %q already exists", name))
	}

	pulse := &model.Pulse{
		PulseID:           PulseIDFor(name, s.now()),
		Name:              name,
		OwnerID:           user.ID,
		AccountSize:       limits.AccountSize,
		Instruments:       in.Instruments,
		MaxRiskPerTrade:   limits.MaxRiskPerTrade,
		MaxDailyRisk:      limits.MaxDailyRisk,
		MaxDailyDrawdown:  limits.MaxDailyDrawdown,
		MaxWeeklyDrawdown: limits.MaxWeeklyDrawdown,
		MaxTotalDrawdown:  limits.MaxTotalDrawdown,
		TradingRules:      in.TradingRules,
		Status:            model.PulseStatusActive,
	}
	if err := s.pulses.Create(ctx, pulse); err != nil {
		return nil, fmt.Errorf("create pulse: %w", err)
	}

	return pulse, nil
}

// GetPulse returns the caller's pulse with the given business identifier.
func (s *Service) GetPulse(ctx context.Context, user *model.User, pulseID string) (*model.Pulse, error) {
	if user == nil {
		return nil, apperr.Unauthorized("authentication required")
	}

	pulse, err := s.pulses.FindByOwnerAndPulseID(ctx, user.ID, pulseID)
	if err != nil {
		return nil, fmt.Errorf("find pulse: %w", err)
	}
	if err := s.policy.CanAccessPulse(user, pulse); err != nil {
		return nil, err
	}
	return pulse, nil
}

func (s *Service) ListPulses(ctx context.Context, user *model.User, filter PulseFilter) (*Page[model.Pulse], error) {
	if user == nil {
		return nil, apperr.Unauthorized("authentication required")
	}
	if filter.Status != nil {
		switch *filter.Status {
		case model.PulseStatusActive, model.PulseStatusLocked, model.PulseStatusArchived:
		default:
			return nil, apperr.Validationf("unknown pulse status %q", *filter.Status)
		}
	}

	page, limit, offset := pageBounds(filter.Page, filter.PageSize)
	pulses, total, err := s.pulses.Search(ctx, repository.PulseSearchOptions{
		OwnerID: user.ID,
		Status:  filter.Status,
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		return nil, fmt.Errorf("list pulses: %w", err)
	}

	return &Page[model.Pulse]{Items: pulses, Page: page, PageSize: filter.PageSize, Total: total}, nil
}

// UpdatePulseSettings applies the single settings change a pulse allows. The
// previous values and the reason are kept on the pulse.
func (s *Service) UpdatePulseSettings(
	ctx context.Context,
	user *model.User,
	pulseID string,
	in model.UpdatePulseSettingsPayload,
) (*model.Pulse, error) {

	pulse, err := s.GetPulse(ctx, user, pulseID)
	if err != nil {
		return nil, err
	}
	if pulse.HasBeenUpdated {
		return nil, apperr.Validation("pulse settings can only be updated once")
	}

	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, apperr.Validation("a reason is required to update pulse settings")
	}
	if in.AccountSize == nil {
		return nil, apperr.Validation("account size is required")
	}

	limits := risk.Limits{
		AccountSize:       *in.AccountSize,
		MaxRiskPerTrade:   in.MaxRiskPerTrade,
		MaxDailyRisk:      in.MaxDailyRisk,
		MaxDailyDrawdown:  in.MaxDailyDrawdown,
		MaxWeeklyDrawdown: in.MaxWeeklyDrawdown,
		MaxTotalDrawdown:  in.MaxTotalDrawdown,
	}
	if err := limits.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	pulse.SettingsUpdate = model.PulseUpdate{
		PreviousAccountSize:       pulse.AccountSize,
		PreviousMaxRiskPerTrade:   pulse.MaxRiskPerTrade,
		PreviousMaxDailyRisk:      pulse.MaxDailyRisk,
		PreviousMaxDailyDrawdown:  pulse.MaxDailyDrawdown,
		PreviousMaxWeeklyDrawdown: pulse.MaxWeeklyDrawdown,
		PreviousMaxTotalDrawdown:  pulse.MaxTotalDrawdown,
		Reason:                    reason,
		UpdatedAt:                 &now,
	}
	pulse.HasBeenUpdated = true
	pulse.AccountSize = limits.AccountSize
	pulse.MaxRiskPerTrade = limits.MaxRiskPerTrade
	pulse.MaxDailyRisk = limits.MaxDailyRisk
	pulse.MaxDailyDrawdown = limits.MaxDailyDrawdown
	pulse.MaxWeeklyDrawdown = limits.MaxWeeklyDrawdown
	pulse.MaxTotalDrawdown = limits.MaxTotalDrawdown

	if err := s.pulses.Save(ctx, pulse); err != nil {
		return nil, storageError(err, "pulse not found")
	}

	s.recomputeAfterWrite(ctx, pulse, "UpdatePulseSettings")
	return pulse, nil
}

// ArchivePulse freezes the pulse. Archiving twice is a no-op.
func (s *Service) ArchivePulse(ctx context.Context, user *model.User, pulseID string) (*model.Pulse, error) {
	pulse, err := s.GetPulse(ctx, user, pulseID)
	if err != nil {
		return nil, err
	}
	if pulse.Status == model.PulseStatusArchived {
		return pulse, nil
	}

	if err := s.pulses.UpdateStatus(ctx, pulse.ID, model.PulseStatusArchived); err != nil {
		return nil, storageError(err, "pulse not found")
	}
	pulse.Status = model.PulseStatusArchived
	return pulse, nil
}

// UnarchivePulse makes the pulse active again. A pulse that still breaches a
// limit goes back to locked on its next recompute.
func (s *Service) UnarchivePulse(ctx context.Context, user *model.User, pulseID string) (*model.Pulse, error) {
	pulse, err := s.GetPulse(ctx, user, pulseID)
	if err != nil {
		return nil, err
	}
	if pulse.Status != model.PulseStatusArchived {
		return nil, apperr.Validation("pulse is not archived")
	}

	if err := s.pulses.UpdateStatus(ctx, pulse.ID, model.PulseStatusActive); err != nil {
		return nil, storageError(err, "pulse not found")
	}
	pulse.Status = model.PulseStatusActive
	return pulse, nil
}

// DeletePulse removes the pulse and all of its trades in one transaction once
// the caller has retyped the pulse name exactly.
func (s *Service) DeletePulse(ctx context.Context, user *model.User, pulseID string, confirmName string) error {
	pulse, err := s.GetPulse(ctx, user, pulseID)
	if err != nil {
		return err
	}
	if confirmName != pulse.Name {
		return apperr.Validation("confirmation does not match the pulse name")
	}

	deleted, err := s.pulses.DeleteWithTrades(ctx, pulse.ID)
	if err != nil {
		return storageError(err, "pulse not found")
	}

	logger.WithFields(map[string]interface{}{
		"module":         "journal",
		"op":             "DeletePulse",
		"pulse_id":       pulse.PulseID,
		"deleted_trades": deleted,
	}).Info("Pulse removed")

	s.publish(user.ID, notify.Event{Type: notify.EventPulseDeleted, PulseID: pulse.PulseID})
	return nil
}
