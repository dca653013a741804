package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/telewarm/warmup-engine-go/internal/audit"
	apperrors "github.com/telewarm/warmup-engine-go/internal/errors"
	"github.com/telewarm/warmup-engine-go/internal/model"
	"github.com/telewarm/warmup-engine-go/internal/service"
)

type AccountHandler struct {
	accountService *service.AccountService
	warmupService  *service.WarmupService
}

func NewAccountHandler(accountService *service.AccountService, warmupService *service.WarmupService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		warmupService:  warmupService,
	}
}

func (h *AccountHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Register)
	r.Get("/{sessionID}", h.Get)
	r.Patch("/{sessionID}", h.Update)
	r.Post("/{sessionID}/warmup", h.TriggerWarmup)
	r.Get("/{sessionID}/sessions", h.WarmupSessions)
	r.Get("/{sessionID}/actions", h.ActionHistory)

	return r
}

// GET /v1/accounts
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	page := ParsePagination(r)

	accounts, total, err := h.accountService.List(r.Context(), page.Limit, page.Offset)
	if err != nil {
		log.Error().Err(err).Msg("failed to list accounts")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"accounts": accounts,
		"total":    total,
		"limit":    page.Limit,
		"offset":   page.Offset,
	})
}

// POST /v1/accounts
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input service.RegisterAccountInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}

	account, err := h.accountService.Register(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:      audit.EventAccountRegister,
		SessionID: account.SessionID,
	})

	writeJSON(w, http.StatusCreated, account)
}

// GET /v1/accounts/{sessionID}
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	account, err := h.accountService.Get(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, account)
}

// PATCH /v1/accounts/{sessionID}
func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var params model.UpdateAccountParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}

	account, err := h.accountService.Update(r.Context(), sessionID, params)
	if err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:      audit.EventAccountUpdate,
		SessionID: sessionID,
	})

	writeJSON(w, http.StatusOK, account)
}

// POST /v1/accounts/{sessionID}/warmup
//
// Starts a manual cycle. The eligibility and lease checks run before the
// response; the cycle itself continues in the background.
func (h *AccountHandler) TriggerWarmup(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	runID, err := h.warmupService.TriggerNow(r.Context(), sessionID)
	if err != nil {
		log.Warn().Err(err).Str("sessionId", sessionID).Msg("manual warmup rejected")
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:      audit.EventManualWarmup,
		SessionID: sessionID,
		Details:   map[string]interface{}{"warmup_session_id": runID},
	})

	writeJSON(w, http.StatusAccepted, map[string]any{
		"warmupSessionId": runID,
		"status":          model.WarmupStatusInProgress,
	})
}

// GET /v1/accounts/{sessionID}/sessions
func (h *AccountHandler) WarmupSessions(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	page := ParsePagination(r)

	sessions, err := h.accountService.WarmupSessions(r.Context(), sessionID, page.Limit, page.Offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"sessions": sessions,
		"limit":    page.Limit,
		"offset":   page.Offset,
	})
}

// GET /v1/accounts/{sessionID}/actions
func (h *AccountHandler) ActionHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	page := ParsePagination(r)

	entries, err := h.accountService.ActionHistory(r.Context(), sessionID, page.Limit, page.Offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"actions": entries,
		"limit":   page.Limit,
		"offset":  page.Offset,
	})
}
