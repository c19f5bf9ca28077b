package risk

import (
	"github.com/shopspring/decimal"

	"tradepulse/src/apperr"
	"tradepulse/src/model"
)

// Ceilings for the percentages a pulse may configure.
const (
	MaxRiskPerTradeCeiling   = 5.0
	MaxDailyRiskCeiling      = 10.0
	MaxDailyDrawdownCeiling  = 10.0
	MaxWeeklyDrawdownCeiling = 20.0
	MaxTotalDrawdownCeiling  = 30.0
)

// Limits is the risk configuration the aggregator evaluates trades against.
type Limits struct {
	AccountSize       decimal.Decimal
	MaxRiskPerTrade   float64
	MaxDailyRisk      float64
	MaxDailyDrawdown  float64
	MaxWeeklyDrawdown float64
	MaxTotalDrawdown  float64
}

func LimitsFor(p *model.Pulse) Limits {
	return Limits{
		AccountSize:       p.AccountSize,
		MaxRiskPerTrade:   p.MaxRiskPerTrade,
		MaxDailyRisk:      p.MaxDailyRisk,
		MaxDailyDrawdown:  p.MaxDailyDrawdown,
		MaxWeeklyDrawdown: p.MaxWeeklyDrawdown,
		MaxTotalDrawdown:  p.MaxTotalDrawdown,
	}
}

// Validate checks the account size and caps every percentage at its ceiling.
func (l Limits) Validate() error {
	if !l.AccountSize.IsPositive() {
		return apperr.Validation("account size must be greater than zero")
	}

	checks := []struct {
		field   string
		value   float64
		ceiling float64
	}{
		{"max risk per trade", l.MaxRiskPerTrade, MaxRiskPerTradeCeiling},
		{"max daily risk", l.MaxDailyRisk, MaxDailyRiskCeiling},
		{"max daily drawdown", l.MaxDailyDrawdown, MaxDailyDrawdownCeiling},
		{"max weekly drawdown", l.MaxWeeklyDrawdown, MaxWeeklyDrawdownCeiling},
		{"max total drawdown", l.MaxTotalDrawdown, MaxTotalDrawdownCeiling},
	}
	for _, c := range checks {
		if c.value <= 0 {
			return apperr.Validationf("%s must be greater than zero", c.field)
		}
		if c.value > c.ceiling {
			return apperr.Validationf("%s cannot exceed %.0f%%", c.field, c.ceiling)
		}
	}
	return nil
}
