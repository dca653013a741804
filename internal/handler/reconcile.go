package handler

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/telewarm/warmup-engine-go/internal/audit"
	apperrors "github.com/telewarm/warmup-engine-go/internal/errors"
	"github.com/telewarm/warmup-engine-go/internal/service"
)

type ReconcileHandler struct {
	reconciler *service.Reconciler
}

func NewReconcileHandler(reconciler *service.Reconciler) *ReconcileHandler {
	return &ReconcileHandler{reconciler: reconciler}
}

// POST /v1/reconcile
//
// Forces a full reconciliation pass outside the scheduler's cadence.
func (h *ReconcileHandler) Run(w http.ResponseWriter, r *http.Request) {
	if err := h.reconciler.Run(r.Context()); err != nil {
		log.Error().Err(err).Msg("manual reconciliation failed")
		writeError(w, apperrors.External("system of record", err))
		return
	}

	audit.LogFromRequest(r, audit.Event{Type: audit.EventManualReconcile})

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
