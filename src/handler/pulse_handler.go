package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tradepulse/src/journal"
	"tradepulse/src/model"
	"tradepulse/src/response"
)

type pulseCreator interface {
	CreatePulse(ctx context.Context, user *model.User, in model.CreatePulsePayload) (*model.Pulse, error)
}

type pulseGetter interface {
	GetPulse(ctx context.Context, user *model.User, pulseID string) (*model.Pulse, error)
}

type pulseLister interface {
	ListPulses(ctx context.Context, user *model.User, filter journal.PulseFilter) (*journal.Page[model.Pulse], error)
}

type pulseSettingsUpdater interface {
	UpdatePulseSettings(ctx context.Context, user *model.User, pulseID string, in model.UpdatePulseSettingsPayload) (*model.Pulse, error)
}

type pulseArchiver interface {
	ArchivePulse(ctx context.Context, user *model.User, pulseID string) (*model.Pulse, error)
	UnarchivePulse(ctx context.Context, user *model.User, pulseID string) (*model.Pulse, error)
}

type pulseDeleter interface {
	DeletePulse(ctx context.Context, user *model.User, pulseID string, confirmName string) error
}

type statsRecomputer interface {
	RecomputeStats(ctx context.Context, user *model.User, pulseID string) (*model.Pulse, error)
}

// CreatePulseHandler creates a pulse for the authenticated user.
func CreatePulseHandler(svc pulseCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}

		var payload model.CreatePulsePayload
		if err := decodeJSON(r, &payload); err != nil {
			response.Fail(w, err)
			return
		}

		pulse, err := svc.CreatePulse(r.Context(), user, payload)
		if err != nil {
			response.Fail(w, err)
			return
		}
		response.Created(w, pulse)
	}
}

func GetPulseHandler(svc pulseGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}

		pulse, err := svc.GetPulse(r.Context(), user, chi.URLParam(r, "pulseID"))
		if err != nil {
			response.Fail(w, err)
			return
		}
		response.OK(w, pulse)
	}
}

// ListPulsesHandler lists the user's pulses. Supports page, pageSize and status.
func ListPulsesHandler(svc pulseLister) http.HandlerFunc {
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

		filter := journal.PulseFilter{Page: page, PageSize: pageSize}
		if status := r.URL.Query().Get("status"); status != "" {
			filter.Status = &status
		}

		result, err := svc.ListPulses(r.Context(), user, filter)
		if err != nil {
			response.Fail(w, err)
			return
		}
		response.OKPage(w, result.Items, response.NewPagination(result.Page, result.PageSize, result.Total))
	}
}

func UpdatePulseSettingsHandler(svc pulseSettingsUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}

		var payload model.UpdatePulseSettingsPayload
		if err := decodeJSON(r, &payload); err != nil {
			response.Fail(w, err)
			return
		}

		pulse, err := svc.UpdatePulseSettings(r.Context(), user, chi.URLParam(r, "pulseID"), payload)
		if err != nil {
			response.Fail(w, err)
			return
		}
		response.OK(w, pulse)
	}
}

func ArchivePulseHandler(svc pulseArchiver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}

		pulse, err := svc.ArchivePulse(r.Context(), user, chi.URLParam(r, "pulseID"))
		if err != nil {
			response.Fail(w, err)
			return
		}
		response.OK(w, pulse)
	}
}

func UnarchivePulseHandler(svc pulseArchiver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}

		pulse, err := svc.UnarchivePulse(r.Context(), user, chi.URLParam(r, "pulseID"))
		if err != nil {
			response.Fail(w, err)
			return
		}
		response.OK(w, pulse)
	}
}

// DeletePulseHandler expects {"confirmation": "<exact pulse name>"}.
func DeletePulseHandler(svc pulseDeleter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}

		var payload model.ConfirmationPayload
		if err := decodeJSON(r, &payload); err != nil {
			response.Fail(w, err)
			return
		}

		if err := svc.DeletePulse(r.Context(), user, chi.URLParam(r, "pulseID"), payload.Confirmation); err != nil {
			response.Fail(w, err)
			return
		}
		response.OK(w, map[string]bool{"deleted": true})
	}
}

func RecomputeStatsHandler(svc statsRecomputer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}

		pulse, err := svc.RecomputeStats(r.Context(), user, chi.URLParam(r, "pulseID"))
		if err != nil {
			response.Fail(w, err)
			return
		}
		response.OK(w, pulse)
	}
}
