package journal

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"tradepulse/src/apperr"
	"tradepulse/src/model"
	"tradepulse/src/notify"
	"tradepulse/src/repository"
)

var fixedNow = time.Date(2024, time.March, 14, 9, 30, 0, 0, time.UTC)

type recordingNotifier struct {
	mu     sync.Mutex
	events map[uint][]notify.Event
}

func (n *recordingNotifier) Publish(userID uint, ev notify.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.events == nil {
		n.events = make(map[uint][]notify.Event)
	}
	n.events[userID] = append(n.events[userID], ev)
}

func (n *recordingNotifier) last(userID uint) (notify.Event, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	evs := n.events[userID]
	if len(evs) == 0 {
		return notify.Event{}, false
	}
	return evs[len(evs)-1], true
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open in memory db: %v", err)
	}
	if err := db.AutoMigrate(&model.User{}, &model.Pulse{}, &model.Trade{}, &model.Exception{}); err != nil {
		t.Fatalf("failed to automigrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T) (*Service, *gorm.DB, *recordingNotifier) {
	t.Helper()

	db := newTestDB(t)
	n := &recordingNotifier{}
	s := WithDB(db, n)
	s.now = func() time.Time { return fixedNow }
	return s, db, n
}

func seedUser(t *testing.T, db *gorm.DB, uid string) *model.User {
	t.Helper()
	u := &model.User{UID: uid, Email: uid + "@example.com", Role: model.RoleUser}
	require.NoError(t, db.Create(u).Error)
	return u
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func pulsePayload(name string) model.CreatePulsePayload {
	return model.CreatePulsePayload{
		Name:              name,
		AccountSize:       dec("10000"),
		Instruments:       []string{"EURUSD", "XAUUSD"},
		MaxRiskPerTrade:   2,
		MaxDailyRisk:      6,
		MaxDailyDrawdown:  5,
		MaxWeeklyDrawdown: 10,
		MaxTotalDrawdown:  20,
		TradingRules:      []model.TradeRule{{ID: "r1", Description: "Wait for the close", Required: true}},
	}
}

func tradePayload(date, pnl string) model.TradePayload {
	return model.TradePayload{
		Date:       date,
		Instrument: "EURUSD",
		Direction:  model.DirectionBuy,
		LotSize:    dec("1"),
		ProfitLoss: dec(pnl),
	}
}

func TestPulseIDFor(t *testing.T) {
	assert.Equal(t, "LOND140324", PulseIDFor("London session", fixedNow))
	assert.Equal(t, "NYSC140324", PulseIDFor("ny scalps", fixedNow))
	assert.Equal(t, "FX140324", PulseIDFor("fx", fixedNow))
}

func TestCreatePulse(t *testing.T) {
	ctx := context.Background()
	s, db, _ := newTestService(t)
	user := seedUser(t, db, "trader")

	p, err := s.CreatePulse(ctx, user, pulsePayload("London session"))
	require.NoError(t, err)
	assert.Equal(t, "LOND140324", p.PulseID)
	assert.Equal(t, model.PulseStatusActive, p.Status)
	assert.Equal(t, user.ID, p.OwnerID)

	_, err = s.CreatePulse(ctx, user, pulsePayload("London session"))
	assert.Equal(t, apperr.CodeDuplicate, apperr.CodeOf(err))

	other := seedUser(t, db, "other")
	_, err = s.CreatePulse(ctx, other, pulsePayload("London session"))
	assert.NoError(t, err, "names are unique per owner only")

	bad := pulsePayload("Too risky")
	bad.MaxRiskPerTrade = 6
	_, err = s.CreatePulse(ctx, user, bad)
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))

	_, err = s.CreatePulse(ctx, nil, pulsePayload("anon"))
	assert.Equal(t, apperr.CodeUnauthorized, apperr.CodeOf(err))
}

// racyPulses hides existing names, as two concurrent creations would both observe.
type racyPulses struct {
	*repository.PulseRepository
}

func (racyPulses) ExistsByName(context.Context, uint, string) (bool, error) {
	return false, nil
}

func TestCreatePulseDuplicateRace(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	user := seedUser(t, db, "trader")

	s := NewService(
		racyPulses{(&repository.PulseRepository{}).WithDB(db)},
		(&repository.TradeRepository{}).WithDB(db),
		(&repository.UserRepository{}).WithDB(db),
		(&repository.ExceptionRepository{}).WithDB(db),
		nil,
	)
	s.now = func() time.Time { return fixedNow }

	first, err := s.CreatePulse(ctx, user, pulsePayload("Swing"))
	require.NoError(t, err)
	second, err := s.CreatePulse(ctx, user, pulsePayload("Swing"))
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, first.PulseID, second.PulseID)

	// Lookups by business id resolve to the oldest row.
	got, err := s.GetPulse(ctx, user, first.PulseID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
}

func TestGetPulseIsScopedToOwner(t *testing.T) {
	ctx := context.Background()
	s, db, _ := newTestService(t)
	owner := seedUser(t, db, "owner")
	stranger := seedUser(t, db, "stranger")

	p, err := s.CreatePulse(ctx, owner, pulsePayload("Scalps"))
	require.NoError(t, err)

	_, err = s.GetPulse(ctx, stranger, p.PulseID)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))

	_, err = s.AddTrade(ctx, stranger, p.PulseID, tradePayload("2024-03-14", "10"))
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestListPulses(t *testing.T) {
	ctx := context.Background()
	s, db, _ := newTestService(t)
	user := seedUser(t, db, "trader")

	for _, name := range []string{"Alpha", "Bravo", "Charlie"} {
		_, err := s.CreatePulse(ctx, user, pulsePayload(name))
		require.NoError(t, err)
	}
	_, err := s.ArchivePulse(ctx, user, PulseIDFor("Bravo", fixedNow))
	require.NoError(t, err)

	page, err := s.ListPulses(ctx, user, PulseFilter{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Len(t, page.Items, 2)

	archived := model.PulseStatusArchived
	page, err = s.ListPulses(ctx, user, PulseFilter{Status: &archived, Page: 1, PageSize: 20})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Bravo", page.Items[0].Name)

	page, err = s.ListPulses(ctx, user, PulseFilter{PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Len(t, page.Items, 2)

	unknown := "frozen"
	_, err = s.ListPulses(ctx, user, PulseFilter{Status: &unknown})
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
}

func TestDailyLossLocksPulse(t *testing.T) {
	ctx := context.Background()
	s, db, n := newTestService(t)
	user := seedUser(t, db, "trader")

	p, err := s.CreatePulse(ctx, user, pulsePayload("Intraday"))
	require.NoError(t, err)

	first, err := s.AddTrade(ctx, user, p.PulseID, tradePayload("2024-03-14", "-300"))
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeLoss, first.Outcome)
	assert.Equal(t, "-3", first.ProfitLossPercent.String())

	_, err = s.AddTrade(ctx, user, p.PulseID, tradePayload("2024-03-14", "-250"))
	require.NoError(t, err)

	got, err := s.GetPulse(ctx, user, p.PulseID)
	require.NoError(t, err)
	assert.Equal(t, model.PulseStatusLocked, got.Status)
	require.Len(t, got.RuleViolations, 1)
	assert.Contains(t, got.RuleViolations[0], "2024-03-14")
	assert.Contains(t, got.RuleViolations[0], "5.50%")
	assert.Equal(t, 2, got.Stats.TotalTrades)
	assert.Equal(t, 2, got.Stats.Losses)
	require.NotNil(t, got.StatsUpdatedAt)

	ev, ok := n.last(user.ID)
	require.True(t, ok)
	assert.Equal(t, notify.EventStatsUpdated, ev.Type)
	assert.Equal(t, model.PulseStatusLocked, ev.Status)
	assert.Equal(t, p.PulseID, ev.PulseID)
}

func TestTradeLifecycleRecomputes(t *testing.T) {
	ctx := context.Background()
	s, db, _ := newTestService(t)
	user := seedUser(t, db, "trader")

	p, err := s.CreatePulse(ctx, user, pulsePayload("Intraday"))
	require.NoError(t, err)

	loss, err := s.AddTrade(ctx, user, p.PulseID, tradePayload("2024-03-14", "-600"))
	require.NoError(t, err)

	got, err := s.GetPulse(ctx, user, p.PulseID)
	require.NoError(t, err)
	assert.Equal(t, model.PulseStatusLocked, got.Status)

	fixed := tradePayload("2024-03-14", "150")
	fixed.Outcome = model.OutcomeWin
	updated, err := s.UpdateTrade(ctx, user, p.PulseID, loss.ID, fixed)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeWin, updated.Outcome)

	got, err = s.GetPulse(ctx, user, p.PulseID)
	require.NoError(t, err)
	assert.Equal(t, model.PulseStatusActive, got.Status)
	assert.Nil(t, got.RuleViolations)
	assert.Equal(t, 1, got.Stats.Wins)

	fetched, err := s.GetTrade(ctx, user, p.PulseID, loss.ID)
	require.NoError(t, err)
	assert.True(t, fetched.ProfitLoss.Equal(decimal.NewFromInt(150)))

	require.NoError(t, s.DeleteTrade(ctx, user, p.PulseID, loss.ID))
	got, err = s.GetPulse(ctx, user, p.PulseID)
	require.NoError(t, err)
	assert.Zero(t, got.Stats.TotalTrades)

	err = s.DeleteTrade(ctx, user, p.PulseID, loss.ID)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestAddTradeValidation(t *testing.T) {
	ctx := context.Background()
	s, db, _ := newTestService(t)
	user := seedUser(t, db, "trader")

	p, err := s.CreatePulse(ctx, user, pulsePayload("Intraday"))
	require.NoError(t, err)

	mismatch := tradePayload("2024-03-14", "-20")
	mismatch.Outcome = model.OutcomeWin
	_, err = s.AddTrade(ctx, user, p.PulseID, mismatch)
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))

	badDate := tradePayload("14/03/2024", "20")
	_, err = s.AddTrade(ctx, user, p.PulseID, badDate)
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))

	flat, err := s.AddTrade(ctx, user, p.PulseID, tradePayload("2024-03-14", "0"))
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeBreakEven, flat.Outcome)

	explicit := tradePayload("2024-03-15", "50")
	explicit.ProfitLossPercent = dec("0.7")
	tr, err := s.AddTrade(ctx, user, p.PulseID, explicit)
	require.NoError(t, err)
	assert.Equal(t, "0.7", tr.ProfitLossPercent.String())

	_, err = s.ArchivePulse(ctx, user, p.PulseID)
	require.NoError(t, err)
	_, err = s.AddTrade(ctx, user, p.PulseID, tradePayload("2024-03-16", "10"))
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
}

func TestListTradesPaginates(t *testing.T) {
	ctx := context.Background()
	s, db, _ := newTestService(t)
	user := seedUser(t, db, "trader")

	p, err := s.CreatePulse(ctx, user, pulsePayload("Intraday"))
	require.NoError(t, err)
	for _, day := range []string{"2024-03-11", "2024-03-12", "2024-03-13"} {
		_, err := s.AddTrade(ctx, user, p.PulseID, tradePayload(day, "10"))
		require.NoError(t, err)
	}

	page, err := s.ListTrades(ctx, user, p.PulseID, TradeFilter{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "2024-03-11", page.Items[0].Date.Format("2006-01-02"))

	page, err = s.ListTrades(ctx, user, p.PulseID, TradeFilter{PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Len(t, page.Items, 2)
}

func TestUpdatePulseSettingsOnce(t *testing.T) {
	ctx := context.Background()
	s, db, _ := newTestService(t)
	user := seedUser(t, db, "trader")

	p, err := s.CreatePulse(ctx, user, pulsePayload("Intraday"))
	require.NoError(t, err)

	in := model.UpdatePulseSettingsPayload{
		AccountSize:       dec("20000"),
		MaxRiskPerTrade:   1,
		MaxDailyRisk:      3,
		MaxDailyDrawdown:  4,
		MaxWeeklyDrawdown: 8,
		MaxTotalDrawdown:  15,
		Reason:            "  funded account  ",
	}

	missingReason := in
	missingReason.Reason = "   "
	_, err = s.UpdatePulseSettings(ctx, user, p.PulseID, missingReason)
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))

	updated, err := s.UpdatePulseSettings(ctx, user, p.PulseID, in)
	require.NoError(t, err)
	assert.True(t, updated.HasBeenUpdated)
	assert.Equal(t, "funded account", updated.SettingsUpdate.Reason)
	assert.True(t, updated.SettingsUpdate.PreviousAccountSize.Equal(decimal.NewFromInt(10000)))
	assert.Equal(t, 2.0, updated.SettingsUpdate.PreviousMaxRiskPerTrade)

	stored, err := s.GetPulse(ctx, user, p.PulseID)
	require.NoError(t, err)
	assert.True(t, stored.AccountSize.Equal(decimal.NewFromInt(20000)))
	assert.Equal(t, 4.0, stored.MaxDailyDrawdown)

	_, err = s.UpdatePulseSettings(ctx, user, p.PulseID, in)
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
}

func TestArchiveAndUnarchive(t *testing.T) {
	ctx := context.Background()
	s, db, _ := newTestService(t)
	user := seedUser(t, db, "trader")

	p, err := s.CreatePulse(ctx, user, pulsePayload("Intraday"))
	require.NoError(t, err)

	_, err = s.UnarchivePulse(ctx, user, p.PulseID)
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))

	archived, err := s.ArchivePulse(ctx, user, p.PulseID)
	require.NoError(t, err)
	assert.Equal(t, model.PulseStatusArchived, archived.Status)

	_, err = s.RecomputeStats(ctx, user, p.PulseID)
	require.NoError(t, err)
	stored, err := s.GetPulse(ctx, user, p.PulseID)
	require.NoError(t, err)
	assert.Equal(t, model.PulseStatusArchived, stored.Status, "recompute keeps archived pulses archived")

	active, err := s.UnarchivePulse(ctx, user, p.PulseID)
	require.NoError(t, err)
	assert.Equal(t, model.PulseStatusActive, active.Status)
}

func TestDeletePulse(t *testing.T) {
	ctx := context.Background()
	s, db, n := newTestService(t)
	user := seedUser(t, db, "trader")

	p, err := s.CreatePulse(ctx, user, pulsePayload("Intraday"))
	require.NoError(t, err)
	_, err = s.AddTrade(ctx, user, p.PulseID, tradePayload("2024-03-14", "10"))
	require.NoError(t, err)

	err = s.DeletePulse(ctx, user, p.PulseID, "intraday")
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))

	require.NoError(t, s.DeletePulse(ctx, user, p.PulseID, "Intraday"))

	var trades int64
	require.NoError(t, db.Model(&model.Trade{}).Count(&trades).Error)
	assert.Zero(t, trades)

	_, err = s.GetPulse(ctx, user, p.PulseID)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))

	ev, ok := n.last(user.ID)
	require.True(t, ok)
	assert.Equal(t, notify.EventPulseDeleted, ev.Type)
}

func TestDeletePulseIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	s, db, _ := newTestService(t)
	user := seedUser(t, db, "trader")

	p, err := s.CreatePulse(ctx, user, pulsePayload("Intraday"))
	require.NoError(t, err)
	for _, day := range []string{"2024-03-12", "2024-03-13"} {
		_, err := s.AddTrade(ctx, user, p.PulseID, tradePayload(day, "10"))
		require.NoError(t, err)
	}

	err = db.Callback().Delete().Before("gorm:delete").Register("test:fail_pulse_delete", func(tx *gorm.DB) {
		if tx.Statement.Table == "pulses" {
			_ = tx.AddError(errors.New("disk full"))
		}
	})
	require.NoError(t, err)

	err = s.DeletePulse(ctx, user, p.PulseID, "Intraday")
	require.Error(t, err)
	assert.Equal(t, apperr.CodeServer, apperr.CodeOf(err))

	var trades int64
	require.NoError(t, db.Model(&model.Trade{}).Count(&trades).Error)
	assert.Equal(t, int64(2), trades, "trade deletes must roll back with the pulse delete")
}

// brokenTrades stores trades but cannot read them back, so every recompute fails.
type brokenTrades struct {
	*repository.TradeRepository
}

func (brokenTrades) ListByPulse(context.Context, uint) ([]model.Trade, error) {
	return nil, errors.New("connection reset")
}

func TestRecomputeFailureDoesNotFailTradeWrite(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	user := seedUser(t, db, "trader")

	s := NewService(
		(&repository.PulseRepository{}).WithDB(db),
		brokenTrades{(&repository.TradeRepository{}).WithDB(db)},
		(&repository.UserRepository{}).WithDB(db),
		(&repository.ExceptionRepository{}).WithDB(db),
		nil,
	)
	s.now = func() time.Time { return fixedNow }

	p, err := s.CreatePulse(ctx, user, pulsePayload("Intraday"))
	require.NoError(t, err)

	tr, err := s.AddTrade(ctx, user, p.PulseID, tradePayload("2024-03-14", "-900"))
	require.NoError(t, err)
	assert.NotZero(t, tr.ID)

	var exceptions []model.Exception
	require.NoError(t, db.Find(&exceptions).Error)
	require.Len(t, exceptions, 1)
	assert.Equal(t, "AddTrade", exceptions[0].Method)
	assert.Equal(t, "journal", exceptions[0].Module)
	assert.Contains(t, exceptions[0].Message, "connection reset")

	_, err = s.RecomputeStats(ctx, user, p.PulseID)
	assert.Error(t, err, "an explicit recompute reports the failure")
}

func TestRecomputeAll(t *testing.T) {
	ctx := context.Background()
	s, db, _ := newTestService(t)
	user := seedUser(t, db, "trader")

	_, err := s.CreatePulse(ctx, user, pulsePayload("Alpha"))
	require.NoError(t, err)
	_, err = s.CreatePulse(ctx, user, pulsePayload("Bravo"))
	require.NoError(t, err)

	_, err = s.RecomputeAll(ctx, user)
	assert.Equal(t, apperr.CodeUnauthorized, apperr.CodeOf(err))

	admin := &model.User{ID: 999, Role: model.RoleAdmin}
	n, err := s.RecomputeAll(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.RecomputeMatching(ctx, RecomputeFilter{OwnerID: user.ID, PulseID: PulseIDFor("Alpha", fixedNow)})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDeleteAccount(t *testing.T) {
	ctx := context.Background()
	s, db, _ := newTestService(t)
	user := seedUser(t, db, "trader")

	p, err := s.CreatePulse(ctx, user, pulsePayload("Intraday"))
	require.NoError(t, err)
	_, err = s.AddTrade(ctx, user, p.PulseID, tradePayload("2024-03-14", "10"))
	require.NoError(t, err)

	err = s.DeleteAccount(ctx, user, "someone@example.com")
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))

	require.NoError(t, s.DeleteAccount(ctx, user, user.Email))

	var users, pulses, trades int64
	require.NoError(t, db.Model(&model.User{}).Count(&users).Error)
	require.NoError(t, db.Model(&model.Pulse{}).Count(&pulses).Error)
	require.NoError(t, db.Model(&model.Trade{}).Count(&trades).Error)
	assert.Zero(t, users)
	assert.Zero(t, pulses)
	assert.Zero(t, trades)
}

func TestDeleteAccountWithoutEmail(t *testing.T) {
	ctx := context.Background()
	s, db, _ := newTestService(t)
	user := &model.User{UID: "admin-before-login", Role: model.RoleAdmin}
	require.NoError(t, db.Create(user).Error)

	err := s.DeleteAccount(ctx, user, "")
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))

	require.NoError(t, s.DeleteAccount(ctx, user, "admin-before-login"))

	var users int64
	require.NoError(t, db.Model(&model.User{}).Count(&users).Error)
	assert.Zero(t, users)
}
