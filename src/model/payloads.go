package model

import "github.com/shopspring/decimal"

type CreatePulsePayload struct {
	Name              string           `json:"name" validate:"required,max=100"`
	AccountSize       *decimal.Decimal `json:"account_size" validate:"required"`
	Instruments       []string         `json:"instruments" validate:"required,min=1,dive,required,max=30"`
	MaxRiskPerTrade   float64          `json:"max_risk_per_trade" validate:"gt=0"`
	MaxDailyRisk      float64          `json:"max_daily_risk" validate:"gt=0"`
	MaxDailyDrawdown  float64          `json:"max_daily_drawdown" validate:"gt=0"`
	MaxWeeklyDrawdown float64          `json:"max_weekly_drawdown" validate:"gt=0"`
	MaxTotalDrawdown  float64          `json:"max_total_drawdown" validate:"gt=0"`
	TradingRules      []TradeRule      `json:"trading_rules"`
}

// UpdatePulseSettingsPayload is accepted once per pulse and must carry a reason.
type UpdatePulseSettingsPayload struct {
	AccountSize       *decimal.Decimal `json:"account_size" validate:"required"`
	MaxRiskPerTrade   float64          `json:"max_risk_per_trade" validate:"gt=0"`
	MaxDailyRisk      float64          `json:"max_daily_risk" validate:"gt=0"`
	MaxDailyDrawdown  float64          `json:"max_daily_drawdown" validate:"gt=0"`
	MaxWeeklyDrawdown float64          `json:"max_weekly_drawdown" validate:"gt=0"`
	MaxTotalDrawdown  float64          `json:"max_total_drawdown" validate:"gt=0"`
	Reason            string           `json:"reason" validate:"required,max=1000"`
}

type ConfirmationPayload struct {
	Confirmation string `json:"confirmation" validate:"required"`
}

type TradePayload struct {
	Date              string           `json:"date" validate:"required,datetime=2006-01-02"`
	EntryTime         string           `json:"entry_time" validate:"omitempty,datetime=15:04"`
	ExitTime          string           `json:"exit_time" validate:"omitempty,datetime=15:04"`
	Instrument        string           `json:"instrument" validate:"required,max=30"`
	Direction         string           `json:"direction" validate:"required,oneof=Buy Sell"`
	LotSize           *decimal.Decimal `json:"lot_size" validate:"required"`
	EntryPrice        *decimal.Decimal `json:"entry_price"`
	ExitPrice         *decimal.Decimal `json:"exit_price"`
	ProfitLoss        *decimal.Decimal `json:"profit_loss" validate:"required"`
	ProfitLossPercent *decimal.Decimal `json:"profit_loss_percent"`
	Outcome           string           `json:"outcome" validate:"omitempty,oneof=Win Loss Break-even"`
	EntryReason       string           `json:"entry_reason"`
	Learnings         string           `json:"learnings"`
	FollowedRules     []string         `json:"followed_rules"`
	EmotionalState    string           `json:"emotional_state" validate:"max=50"`
	MarketCondition   string           `json:"market_condition" validate:"max=50"`
	Journal           map[string]any   `json:"journal"`
}

type SessionPayload struct {
	Token string `json:"token" validate:"required"`
}

type AdminSetupPayload struct {
	UID       string `json:"uid"`
	SecretKey string `json:"secretKey"`
}
