package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"tradepulse/src/apperr"
	"tradepulse/src/journal"
	"tradepulse/src/model"
	"tradepulse/src/response"
	"tradepulse/src/utils"
)

type tradeAdder interface {
	AddTrade(ctx context.Context, user *model.User, pulseID string, in model.TradePayload) (*model.Trade, error)
}

type tradeGetter interface {
	GetTrade(ctx context.Context, user *model.User, pulseID string, tradeID uint) (*model.Trade, error)
}

type tradeLister interface {
	ListTrades(ctx context.Context, user *model.User, pulseID string, filter journal.TradeFilter) (*journal.Page[model.Trade], error)
}

type tradeUpdater interface {
	UpdateTrade(ctx context.Context, user *model.User, pulseID string, tradeID uint, in model.TradePayload) (*model.Trade, error)
}

type tradeDeleter interface {
	DeleteTrade(ctx context.Context, user *model.User, pulseID string, tradeID uint) error
}

// decodeTrade decodes a trade payload and rejects an outcome that contradicts
// the sign of the profit/loss before anything reaches the gateway.
func decodeTrade(r *http.Request) (model.TradePayload, error) {
	var payload model.TradePayload
	if err := decodeJSON(r, &payload); err != nil {
		return payload, err
	}
	if err := journal.CheckOutcome(payload.Outcome, *payload.ProfitLoss); err != nil {
		return payload, err
	}
	return payload, nil
}

func AddTradeHandler(svc tradeAdder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}

		payload, err := decodeTrade(r)
		if err != nil {
			response.Fail(w, err)
			return
		}

		trade, err := svc.AddTrade(r.Context(), user, chi.URLParam(r, "pulseID"), payload)
		if err != nil {
			response.Fail(w, err)
			return
		}
		response.Created(w, trade)
	}
}

func GetTradeHandler(svc tradeGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}

		tradeID, err := uintParam(r, "tradeID")
		if err != nil {
			response.Fail(w, err)
			return
		}

		trade, err := svc.GetTrade(r.Context(), user, chi.URLParam(r, "pulseID"), tradeID)
		if err != nil {
			response.Fail(w, err)
			return
		}
		response.OK(w, trade)
	}
}

// ListTradesHandler lists a pulse's trades, newest first.
// Supports pagination and filters (instrument, dateFrom, dateTo as YYYY-MM-DD).
func ListTradesHandler(svc tradeLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}

		page, pageSize, err := pageParams(r)
		if err != nil {
			response.Fail(w, err)
			return
		}

		filter := journal.TradeFilter{Page: page, PageSize: pageSize}
		if instrument := r.URL.Query().Get("instrument"); instrument != "" {
			filter.Instrument = &instrument
		}
		if filter.DateFrom, err = dateQuery(r, "dateFrom"); err != nil {
			response.Fail(w, err)
			return
		}
		if filter.DateTo, err = dateQuery(r, "dateTo"); err != nil {
			response.Fail(w, err)
			return
		}

		result, err := svc.ListTrades(r.Context(), user, chi.URLParam(r, "pulseID"), filter)
		if err != nil {
			response.Fail(w, err)
			return
		}
		response.OKPage(w, result.Items, response.NewPagination(result.Page, result.PageSize, result.Total))
	}
}

func UpdateTradeHandler(svc tradeUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}

		tradeID, err := uintParam(r, "tradeID")
		if err != nil {
			response.Fail(w, err)
			return
		}

		payload, err := decodeTrade(r)
		if err != nil {
			response.Fail(w, err)
			return
		}

		trade, err := svc.UpdateTrade(r.Context(), user, chi.URLParam(r, "pulseID"), tradeID, payload)
		if err != nil {
			response.Fail(w, err)
			return
		}
		response.OK(w, trade)
	}
}

func DeleteTradeHandler(svc tradeDeleter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}

		tradeID, err := uintParam(r, "tradeID")
		if err != nil {
			response.Fail(w, err)
			return
		}

		if err := svc.DeleteTrade(r.Context(), user, chi.URLParam(r, "pulseID"), tradeID); err != nil {
			response.Fail(w, err)
			return
		}
		response.OK(w, map[string]bool{"deleted": true})
	}
}

func dateQuery(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	parsed, err := utils.ParseDate(raw)
	if err != nil {
		return nil, apperr.Validationf("invalid %s", name)
	}
	return &parsed, nil
}
