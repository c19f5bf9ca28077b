// Package policy decides who may touch which records.
package policy

import (
	"tradepulse/src/apperr"
	"tradepulse/src/model"
)

// Authorizer centralizes the ownership checks that used to be inlined per query.
type Authorizer struct{}

func NewAuthorizer() *Authorizer {
	return &Authorizer{}
}

// CanAccessPulse allows the owner only.
func (a *Authorizer) CanAccessPulse(user *model.User, pulse *model.Pulse) error {
	if user == nil {
		return apperr.Unauthorized("authentication required")
	}
	if pulse == nil {
		return apperr.NotFound("pulse not found")
	}
	if pulse.OwnerID != user.ID {
		return apperr.Unauthorized("you do not have access to this pulse")
	}
	return nil
}

// CanAccessTrade requires the trade to belong to the pulse and the pulse to the user.
func (a *Authorizer) CanAccessTrade(user *model.User, pulse *model.Pulse, trade *model.Trade) error {
	if err := a.CanAccessPulse(user, pulse); err != nil {
		return err
	}
	if trade == nil || trade.PulseRef != pulse.ID {
		return apperr.NotFound("trade not found")
	}
	return nil
}

// CanAdminister allows admins only.
func (a *Authorizer) CanAdminister(user *model.User) error {
	if !user.IsAdmin() {
		return apperr.Unauthorized("admin role required")
	}
	return nil
}
