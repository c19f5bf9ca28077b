package journal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"tradepulse/src/apperr"
	"tradepulse/src/model"
	"tradepulse/src/repository"
	"tradepulse/src/utils"
)

var hundred = decimal.NewFromInt(100)

// TradeFilter narrows ListTrades.
type TradeFilter struct {
	Instrument *string
	DateFrom   *time.Time
	DateTo     *time.Time
	Page       int
	PageSize   int
}

// CheckOutcome reports a validation error when outcome disagrees with the sign
// of profitLoss. An empty outcome always agrees.
func CheckOutcome(outcome string, profitLoss decimal.Decimal) error {
	if outcome == "" {
		return nil
	}
	if derived := model.OutcomeFor(profitLoss); derived != outcome {
		return apperr.Validationf("outcome %s does not match profit/loss %s", outcome, profitLoss.String())
	}
	return nil
}

// AddTrade stores a trade on the pulse and recomputes its stats.
func (s *Service) AddTrade(ctx context.Context, user *model.User, pulseID string, in model.TradePayload) (*model.Trade, error) {
	pulse, err := s.GetPulse(ctx, user, pulseID)
	if err != nil {
		return nil, err
	}
	if pulse.Status == model.PulseStatusArchived {
		return nil, apperr.Validation("archived pulses do not accept trades")
	}

	trade := &model.Trade{PulseRef: pulse.ID}
	if err := fillTrade(trade, pulse, in); err != nil {
		return nil, err
	}

	if err := s.trades.Create(ctx, trade); err != nil {
		return nil, fmt.Errorf("create trade: %w", err)
	}

	s.recomputeAfterWrite(ctx, pulse, "AddTrade")
	return trade, nil
}

func (s *Service) GetTrade(ctx context.Context, user *model.User, pulseID string, tradeID uint) (*model.Trade, error) {
	_, trade, err := s.loadTrade(ctx, user, pulseID, tradeID)
	return trade, err
}

func (s *Service) ListTrades(ctx context.Context, user *model.User, pulseID string, filter TradeFilter) (*Page[model.Trade], error) {
	pulse, err := s.GetPulse(ctx, user, pulseID)
	if err != nil {
		return nil, err
	}

	page, limit, offset := pageBounds(filter.Page, filter.PageSize)
	trades, total, err := s.trades.Search(ctx, repository.TradeSearchOptions{
		PulseRef:   pulse.ID,
		Instrument: filter.Instrument,
		DateFrom:   filter.DateFrom,
		DateTo:     filter.DateTo,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return nil, fmt.Errorf("list trades: %w", err)
	}

	return &Page[model.Trade]{Items: trades, Page: page, PageSize: filter.PageSize, Total: total}, nil
}

// UpdateTrade replaces the trade's fields and recomputes the pulse.
func (s *Service) UpdateTrade(
	ctx context.Context,
	user *model.User,
	pulseID string,
	tradeID uint,
	in model.TradePayload,
) (*model.Trade, error) {

	pulse, trade, err := s.loadTrade(ctx, user, pulseID, tradeID)
	if err != nil {
		return nil, err
	}
	if pulse.Status == model.PulseStatusArchived {
		return nil, apperr.Validation("trades of an archived pulse cannot be changed")
	}

	if err := fillTrade(trade, pulse, in); err != nil {
		return nil, err
	}
	if err := s.trades.Save(ctx, trade); err != nil {
		return nil, storageError(err, "trade not found")
	}

	s.recomputeAfterWrite(ctx, pulse, "UpdateTrade")
	return trade, nil
}

// DeleteTrade removes the trade and recomputes the pulse.
func (s *Service) DeleteTrade(ctx context.Context, user *model.User, pulseID string, tradeID uint) error {
	pulse, trade, err := s.loadTrade(ctx, user, pulseID, tradeID)
	if err != nil {
		return err
	}
	if pulse.Status == model.PulseStatusArchived {
		return apperr.Validation("trades of an archived pulse cannot be changed")
	}

	if err := s.trades.Delete(ctx, trade.ID); err != nil {
		return storageError(err, "trade not found")
	}

	s.recomputeAfterWrite(ctx, pulse, "DeleteTrade")
	return nil
}

func (s *Service) loadTrade(ctx context.Context, user *model.User, pulseID string, tradeID uint) (*model.Pulse, *model.Trade, error) {
	pulse, err := s.GetPulse(ctx, user, pulseID)
	if err != nil {
		return nil, nil, err
	}

	trade, err := s.trades.FindByID(ctx, tradeID)
	if err != nil {
		return nil, nil, fmt.Errorf("find trade: %w", err)
	}
	if err := s.policy.CanAccessTrade(user, pulse, trade); err != nil {
		return nil, nil, err
	}
	return pulse, trade, nil
}

// fillTrade copies the payload onto t, deriving the outcome and the P/L
// percentage of the account when the payload leaves them out.
func fillTrade(t *model.Trade, pulse *model.Pulse, in model.TradePayload) error {
	date, err := utils.ParseDate(in.Date)
	if err != nil {
		return apperr.Validationf("invalid trade date %q", in.Date)
	}
	if in.LotSize == nil || !in.LotSize.IsPositive() {
		return apperr.Validation("lot size must be greater than zero")
	}
	if in.ProfitLoss == nil {
		return apperr.Validation("profit/loss is required")
	}
	if err := CheckOutcome(in.Outcome, *in.ProfitLoss); err != nil {
		return err
	}

	t.Date = date
	t.EntryTime = in.EntryTime
	t.ExitTime = in.ExitTime
	t.Instrument = strings.TrimSpace(in.Instrument)
	t.Direction = in.Direction
	t.LotSize = *in.LotSize
	t.EntryPrice = decimalOrZero(in.EntryPrice)
	t.ExitPrice = decimalOrZero(in.ExitPrice)
	t.ProfitLoss = *in.ProfitLoss

	t.Outcome = in.Outcome
	if t.Outcome == "" {
		t.Outcome = model.OutcomeFor(t.ProfitLoss)
	}

	switch {
	case in.ProfitLossPercent != nil:
		t.ProfitLossPercent = *in.ProfitLossPercent
	case pulse.AccountSize.IsPositive():
		t.ProfitLossPercent = t.ProfitLoss.Div(pulse.AccountSize).Mul(hundred).Round(4)
	default:
		t.ProfitLossPercent = decimal.Zero
	}

	t.EntryReason = in.EntryReason
	t.Learnings = in.Learnings
	t.FollowedRules = in.FollowedRules
	t.EmotionalState = in.EmotionalState
	t.MarketCondition = in.MarketCondition
	t.Journal = nil
	if len(in.Journal) > 0 {
		t.Journal = datatypes.JSONMap(in.Journal)
	}
	return nil
}

func decimalOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
