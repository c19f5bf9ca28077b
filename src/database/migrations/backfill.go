package migrations

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"tradepulse/src/model"
	"tradepulse/src/risk"
)

// backfillTradeOutcomes derives the outcome of trades imported without one.
func backfillTradeOutcomes(db *gorm.DB) error {
	var trades []model.Trade
	if err := db.Where("outcome IS NULL OR outcome = ''").Find(&trades).Error; err != nil {
		return err
	}

	for _, t := range trades {
		if err := db.Model(&model.Trade{}).
			Where("id = ?", t.ID).
			Update("outcome", model.OutcomeFor(t.ProfitLoss)).Error; err != nil {
			return fmt.Errorf("trade %d: %w", t.ID, err)
		}
	}

	return nil
}

// recomputePulseStats brings every stored snapshot in line with the aggregator.
func recomputePulseStats(db *gorm.DB) error {
	var pulses []model.Pulse
	if err := db.Find(&pulses).Error; err != nil {
		return err
	}

	now := time.Now().UTC()
	for i := range pulses {
		p := &pulses[i]

		var trades []model.Trade
		if err := db.Where("pulse_ref = ?", p.ID).Find(&trades).Error; err != nil {
			return fmt.Errorf("load trades for pulse %d: %w", p.ID, err)
		}

		risk.Apply(p, risk.Evaluate(risk.LimitsFor(p), trades), now)

		if err := db.Model(&model.Pulse{}).
			Where("id = ?", p.ID).
			Select(model.StatsColumns).
			Updates(p).Error; err != nil {
			return fmt.Errorf("save stats for pulse %d: %w", p.ID, err)
		}
	}

	return nil
}
