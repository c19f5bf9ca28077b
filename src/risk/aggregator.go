// Package risk recomputes a pulse's statistics and rule violations from its trades.
package risk

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"tradepulse/src/model"
	"tradepulse/src/utils"
)

var hundred = decimal.NewFromInt(100)

// Result is what one aggregation pass produces for a pulse.
type Result struct {
	Stats      model.PulseStats
	Violations []string
}

// Status is the pulse status implied by the result.
func (r Result) Status() string {
	if len(r.Violations) > 0 {
		return model.PulseStatusLocked
	}
	return model.PulseStatusActive
}

// Evaluate reduces the full trade set of a pulse. Trade order does not matter.
//
// Break-even trades count towards TotalTrades only. Profit factor is zero when
// there are no losses, even if every trade won. The daily risk bucket adds
// lotSize * MaxRiskPerTrade / 100 per trade, i.e. the configured ceiling, not
// the risk actually taken.
func Evaluate(limits Limits, trades []model.Trade) Result {
	var (
		stats       model.PulseStats
		total       = decimal.Zero
		grossProfit = decimal.Zero
		grossLoss   = decimal.Zero
		dayLoss     = map[string]decimal.Decimal{}
		dayRisk     = map[string]decimal.Decimal{}
		weekLoss    = map[string]decimal.Decimal{}
	)

	riskPerTrade := decimal.NewFromFloat(limits.MaxRiskPerTrade)

	for _, t := range trades {
		stats.TotalTrades++
		total = total.Add(t.ProfitLoss)

		date := t.Date.UTC()
		day := utils.DayKey(date)

		switch t.ProfitLoss.Sign() {
		case 1:
			stats.Wins++
			grossProfit = grossProfit.Add(t.ProfitLoss)
		case -1:
			stats.Losses++
			loss := t.ProfitLoss.Abs()
			grossLoss = grossLoss.Add(loss)
			dayLoss[day] = dayLoss[day].Add(loss)
			week := utils.WeekKey(date)
			weekLoss[week] = weekLoss[week].Add(loss)
		default:
			stats.BreakEvens++
		}

		dayRisk[day] = dayRisk[day].Add(t.LotSize.Mul(riskPerTrade).Div(hundred))
	}

	stats.TotalProfitLoss = total
	stats.GrossProfit = grossProfit
	stats.GrossLoss = grossLoss
	stats.StrikeRate = decimal.Zero
	stats.AverageWin = decimal.Zero
	stats.AverageLoss = decimal.Zero
	stats.ProfitFactor = decimal.Zero
	stats.TotalDrawdown = decimal.Zero

	if stats.TotalTrades > 0 {
		stats.StrikeRate = decimal.NewFromInt(int64(stats.Wins)).
			Div(decimal.NewFromInt(int64(stats.TotalTrades))).
			Mul(hundred).
			Round(4)
	}
	if stats.Wins > 0 {
		stats.AverageWin = grossProfit.Div(decimal.NewFromInt(int64(stats.Wins))).Round(8)
	}
	if stats.Losses > 0 {
		stats.AverageLoss = grossLoss.Div(decimal.NewFromInt(int64(stats.Losses))).Round(8)
	}
	if grossLoss.IsPositive() {
		stats.ProfitFactor = grossProfit.Div(grossLoss).Round(8)
	}
	if total.IsNegative() {
		stats.TotalDrawdown = percentOf(total.Abs(), limits.AccountSize).Round(4)
	}

	var violations []string

	dailyLimit := decimal.NewFromFloat(limits.MaxDailyDrawdown)
	for _, day := range sortedKeys(dayLoss) {
		pct := percentOf(dayLoss[day], limits.AccountSize)
		if pct.GreaterThan(dailyLimit) {
			violations = append(violations, fmt.Sprintf(
				"Daily loss limit exceeded on %s: %s%% lost, limit %s%%",
				day, pct.StringFixed(2), dailyLimit.StringFixed(2)))
		}
	}

	weeklyLimit := decimal.NewFromFloat(limits.MaxWeeklyDrawdown)
	for _, week := range sortedKeys(weekLoss) {
		pct := percentOf(weekLoss[week], limits.AccountSize)
		if pct.GreaterThan(weeklyLimit) {
			violations = append(violations, fmt.Sprintf(
				"Weekly loss limit exceeded for week of %s: %s%% lost, limit %s%%",
				week, pct.StringFixed(2), weeklyLimit.StringFixed(2)))
		}
	}

	riskLimit := decimal.NewFromFloat(limits.MaxDailyRisk)
	for _, day := range sortedKeys(dayRisk) {
		consumed := dayRisk[day]
		if consumed.GreaterThan(riskLimit) {
			violations = append(violations, fmt.Sprintf(
				"Daily risk limit exceeded on %s: %s%% risked, limit %s%%",
				day, consumed.StringFixed(2), riskLimit.StringFixed(2)))
		}
	}

	return Result{Stats: stats, Violations: violations}
}

// Apply writes a result onto the pulse. Archived pulses keep their status.
func Apply(p *model.Pulse, r Result, now time.Time) {
	p.Stats = r.Stats
	p.RuleViolations = nil
	if len(r.Violations) > 0 {
		p.RuleViolations = r.Violations
	}
	if p.Status != model.PulseStatusArchived {
		p.Status = r.Status()
	}
	p.StatsUpdatedAt = &now
}

func percentOf(amount, accountSize decimal.Decimal) decimal.Decimal {
	if !accountSize.IsPositive() {
		return decimal.Zero
	}
	return amount.Div(accountSize).Mul(hundred)
}

func sortedKeys(m map[string]decimal.Decimal) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
