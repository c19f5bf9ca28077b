package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	DirectionBuy  = "Buy"
	DirectionSell = "Sell"

	OutcomeWin       = "Win"
	OutcomeLoss      = "Loss"
	OutcomeBreakEven = "Break-even"
)

// Trade is one logged position within a pulse.
type Trade struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	PulseRef uint `gorm:"column:pulse_ref;not null;index" json:"pulse_ref"`

	Date       time.Time `gorm:"type:date;not null;index" json:"date"`
	EntryTime  string    `gorm:"size:5" json:"entry_time,omitempty"`
	ExitTime   string    `gorm:"size:5" json:"exit_time,omitempty"`
	Instrument string    `gorm:"size:30;not null" json:"instrument"`
	Direction  string    `gorm:"size:4;not null" json:"direction"`

	LotSize           decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"lot_size"`
	EntryPrice        decimal.Decimal `gorm:"type:numeric(20,8)" json:"entry_price"`
	ExitPrice         decimal.Decimal `gorm:"type:numeric(20,8)" json:"exit_price"`
	ProfitLoss        decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"profit_loss"`
	ProfitLossPercent decimal.Decimal `gorm:"type:numeric(10,4)" json:"profit_loss_percent"`
	Outcome           string          `gorm:"size:12;not null" json:"outcome"`

	EntryReason   string                      `gorm:"type:text" json:"entry_reason"`
	Learnings     string                      `gorm:"type:text" json:"learnings"`
	FollowedRules datatypes.JSONSlice[string] `json:"followed_rules"`

	// Journaling context only, never read by the aggregator.
	EmotionalState  string            `gorm:"size:50" json:"emotional_state,omitempty"`
	MarketCondition string            `gorm:"size:50" json:"market_condition,omitempty"`
	Journal         datatypes.JSONMap `json:"journal,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Trade) TableName() string {
	return "trades"
}

// OutcomeFor derives the outcome from the sign of a profit/loss amount.
func OutcomeFor(profitLoss decimal.Decimal) string {
	switch profitLoss.Sign() {
	case 1:
		return OutcomeWin
	case -1:
		return OutcomeLoss
	default:
		return OutcomeBreakEven
	}
}
