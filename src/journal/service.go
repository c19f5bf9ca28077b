// Package journal is the gateway between the HTTP layer and storage. Every
// pulse and trade operation passes an ownership check here before it touches a
// repository, and every trade write is followed by a stats recompute.
package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"tradepulse/src/apperr"
	"tradepulse/src/model"
	"tradepulse/src/notify"
	"tradepulse/src/policy"
	"tradepulse/src/repository"
)

type pulseStore interface {
	Create(ctx context.Context, p *model.Pulse) error
	FindByOwnerAndPulseID(ctx context.Context, ownerID uint, pulseID string) (*model.Pulse, error)
	ExistsByName(ctx context.Context, ownerID uint, name string) (bool, error)
	Search(ctx context.Context, options repository.PulseSearchOptions) ([]model.Pulse, int64, error)
	FindAll(ctx context.Context) ([]model.Pulse, error)
	Save(ctx context.Context, p *model.Pulse) error
	UpdateStatus(ctx context.Context, id uint, status string) error
	SaveStats(ctx context.Context, p *model.Pulse) error
	DeleteWithTrades(ctx context.Context, id uint) (int64, error)
}

type tradeStore interface {
	Create(ctx context.Context, t *model.Trade) error
	Save(ctx context.Context, t *model.Trade) error
	FindByID(ctx context.Context, id uint) (*model.Trade, error)
	ListByPulse(ctx context.Context, pulseRef uint) ([]model.Trade, error)
	Search(ctx context.Context, options repository.TradeSearchOptions) ([]model.Trade, int64, error)
	Delete(ctx context.Context, id uint) error
}

type accountStore interface {
	DeleteAccount(ctx context.Context, userID uint) error
}

type exceptionStore interface {
	Create(ctx context.Context, exc *model.Exception) error
}

// Notifier receives an event after every recompute or deletion.
type Notifier interface {
	Publish(userID uint, ev notify.Event)
}

// Page is one slice of a paginated listing.
type Page[T any] struct {
	Items    []T
	Page     int
	PageSize int
	Total    int64
}

type Service struct {
	pulses     pulseStore
	trades     tradeStore
	accounts   accountStore
	exceptions exceptionStore
	policy     *policy.Authorizer
	notifier   Notifier
	config     Config
	now        func() time.Time
}

func NewService(
	pulses pulseStore,
	trades tradeStore,
	accounts accountStore,
	exceptions exceptionStore,
	notifier Notifier,
) *Service {
	return &Service{
		pulses:     pulses,
		trades:     trades,
		accounts:   accounts,
		exceptions: exceptions,
		policy:     policy.NewAuthorizer(),
		notifier:   notifier,
		config:     GetConfig(),
		now:        time.Now,
	}
}

// NewDefaultService wires the repositories bound to database.MainDB.
func NewDefaultService(notifier Notifier) *Service {
	return NewService(
		repository.NewPulseRepository(),
		repository.NewTradeRepository(),
		repository.NewUserRepository(),
		repository.NewExceptionRepository(),
		notifier,
	)
}

// WithDB returns a service whose repositories all use db.
func WithDB(db *gorm.DB, notifier Notifier) *Service {
	return NewService(
		(&repository.PulseRepository{}).WithDB(db),
		(&repository.TradeRepository{}).WithDB(db),
		(&repository.UserRepository{}).WithDB(db),
		(&repository.ExceptionRepository{}).WithDB(db),
		notifier,
	)
}

// DeleteAccount removes the user with every pulse and trade they own. The
// confirmation must be the account email, typed exactly, or the UID for
// accounts that have no email on file.
func (s *Service) DeleteAccount(ctx context.Context, user *model.User, confirmation string) error {
	if user == nil {
		return apperr.Unauthorized("authentication required")
	}
	if confirmation == "" || confirmation != deletionConfirmation(user) {
		return apperr.Validation("confirmation does not match the account email")
	}

	if err := s.accounts.DeleteAccount(ctx, user.ID); err != nil {
		return storageError(err, "account not found")
	}
	return nil
}

func deletionConfirmation(user *model.User) string {
	if user.Email == "" {
		return user.UID
	}
	return user.Email
}

func (s *Service) publish(userID uint, ev notify.Event) {
	if s.notifier == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = s.now().UTC()
	}
	s.notifier.Publish(userID, ev)
}

// storageError maps a missing row to NOT_FOUND and wraps anything else.
func storageError(err error, notFound string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(notFound)
	}
	if _, ok := apperr.As(err); ok {
		return err
	}
	return fmt.Errorf("storage: %w", err)
}

// pageBounds clamps page to 1 and returns it with the matching limit and
// offset. A pageSize below 1 means no limit.
func pageBounds(page, pageSize int) (current, limit, offset int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		return page, 0, 0
	}
	return page, pageSize, (page - 1) * pageSize
}
