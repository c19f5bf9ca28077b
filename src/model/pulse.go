package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	PulseStatusActive   = "active"
	PulseStatusLocked   = "locked"
	PulseStatusArchived = "archived"
)

// TradeRule is a checklist item the user attests to when logging a trade.
// Required rules are enforced by the client only.
type TradeRule struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// PulseStats is the snapshot written back by the aggregator.
type PulseStats struct {
	TotalTrades     int             `gorm:"not null;default:0" json:"total_trades"`
	Wins            int             `gorm:"not null;default:0" json:"wins"`
	Losses          int             `gorm:"not null;default:0" json:"losses"`
	BreakEvens      int             `gorm:"not null;default:0" json:"break_evens"`
	StrikeRate      decimal.Decimal `gorm:"type:numeric(10,4)" json:"strike_rate"`
	TotalProfitLoss decimal.Decimal `gorm:"type:numeric(20,8)" json:"total_profit_loss"`
	GrossProfit     decimal.Decimal `gorm:"type:numeric(20,8)" json:"gross_profit"`
	GrossLoss       decimal.Decimal `gorm:"type:numeric(20,8)" json:"gross_loss"`
	AverageWin      decimal.Decimal `gorm:"type:numeric(20,8)" json:"average_win"`
	AverageLoss     decimal.Decimal `gorm:"type:numeric(20,8)" json:"average_loss"`
	ProfitFactor    decimal.Decimal `gorm:"type:numeric(20,8)" json:"profit_factor"`
	TotalDrawdown   decimal.Decimal `gorm:"type:numeric(10,4)" json:"total_drawdown"`
}

// PulseUpdate records the values a pulse had before its one allowed settings change.
type PulseUpdate struct {
	PreviousAccountSize       decimal.Decimal `gorm:"type:numeric(20,8)" json:"previous_account_size"`
	PreviousMaxRiskPerTrade   float64         `json:"previous_max_risk_per_trade"`
	PreviousMaxDailyRisk      float64         `json:"previous_max_daily_risk"`
	PreviousMaxDailyDrawdown  float64         `json:"previous_max_daily_drawdown"`
	PreviousMaxWeeklyDrawdown float64         `json:"previous_max_weekly_drawdown"`
	PreviousMaxTotalDrawdown  float64         `json:"previous_max_total_drawdown"`
	Reason                    string          `gorm:"type:text" json:"reason"`
	UpdatedAt                 *time.Time      `json:"updated_at,omitempty"`
}

// Pulse is a named trading-risk profile owned by one user.
type Pulse struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	PulseID string `gorm:"size:20;not null;index" json:"pulse_id"`
	Name    string `gorm:"size:100;not null;index" json:"name"`
	OwnerID uint   `gorm:"not null;index" json:"owner_id"`

	AccountSize decimal.Decimal             `gorm:"type:numeric(20,8);not null" json:"account_size"`
	Instruments datatypes.JSONSlice[string] `json:"instruments"`

	MaxRiskPerTrade   float64 `gorm:"not null" json:"max_risk_per_trade"`
	MaxDailyRisk      float64 `gorm:"not null" json:"max_daily_risk"`
	MaxDailyDrawdown  float64 `gorm:"not null" json:"max_daily_drawdown"`
	MaxWeeklyDrawdown float64 `gorm:"not null" json:"max_weekly_drawdown"`
	MaxTotalDrawdown  float64 `gorm:"not null" json:"max_total_drawdown"`

	TradingRules datatypes.JSONSlice[TradeRule] `json:"trading_rules"`

	Status         string                      `gorm:"size:20;not null;default:active;index" json:"status"`
	Stats          PulseStats                  `gorm:"embedded;embeddedPrefix:stats_" json:"stats"`
	RuleViolations datatypes.JSONSlice[string] `json:"rule_violations"`
	StatsUpdatedAt *time.Time                  `json:"stats_updated_at,omitempty"`

	HasBeenUpdated bool        `gorm:"not null;default:false" json:"has_been_updated"`
	SettingsUpdate PulseUpdate `gorm:"embedded;embeddedPrefix:update_" json:"settings_update"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Trades []Trade `gorm:"foreignKey:PulseRef;constraint:OnDelete:CASCADE" json:"-"`
}

func (Pulse) TableName() string {
	return "pulses"
}

// StatsColumns are the pulse columns an aggregation pass writes back.
var StatsColumns = []string{
	"stats_total_trades", "stats_wins", "stats_losses", "stats_break_evens",
	"stats_strike_rate", "stats_total_profit_loss", "stats_gross_profit",
	"stats_gross_loss", "stats_average_win", "stats_average_loss",
	"stats_profit_factor", "stats_total_drawdown",
	"status", "rule_violations", "stats_updated_at",
}
