package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/forcepush/tradedesk/internal/auth"
	"github.com/forcepush/tradedesk/internal/domain"
	"github.com/forcepush/tradedesk/internal/executor"
	"github.com/forcepush/tradedesk/internal/portfolio"
)

type handlers struct {
	coord    *executor.Coordinator
	store    *portfolio.Store
	sessions *auth.S3Provider
	logger   *slog.Logger
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *handlers) listHoldings(w http.ResponseWriter, r *http.Request) {
	variant, ok := parseVariant(r.PathValue("variant"))
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown variant")
		return
	}
	writeJSON(w, http.StatusOK, h.store.List(variant))
}

func (h *handlers) queueState(w http.ResponseWriter, r *http.Request) {
	symbols, direction := h.coord.Queue().Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"symbols":   symbols,
		"direction": direction,
	})
}

func (h *handlers) toggle(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	variant, ok := parseVariant(r.URL.Query().Get("variant"))
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown variant")
		return
	}

	res, err := h.coord.Toggle(variant, symbol)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnknownHolding):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, domain.ErrAlreadyInFlight):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": res})
}

func (h *handlers) execute(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Variant   int  `json:"variant"`
		Direction bool `json:"direction"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	variant := domain.Variant(req.Variant)
	if !variant.Valid() {
		writeError(w, http.StatusBadRequest, "unknown variant")
		return
	}

	submitted, err := h.coord.Execute(r.Context(), variant, req.Direction)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmptyQueue), errors.Is(err, domain.ErrDirectionConflict):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, domain.ErrSendFailed):
			writeError(w, http.StatusBadGateway, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"submitted": submitted})
}

func (h *handlers) rotateSession(w http.ResponseWriter, r *http.Request) {
	variant, ok := parseVariant(r.PathValue("variant"))
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown variant")
		return
	}

	var session auth.Session
	if err := json.NewDecoder(r.Body).Decode(&session); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.sessions.Rotate(r.Context(), variant, session); err != nil {
		h.logger.Error("session rotation failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "rotated"})
}

// parseVariant accepts the numeric book index ("0"/"1") or a label. An
// empty value means the default book.
func parseVariant(s string) (domain.Variant, bool) {
	switch s {
	case "", "0", "default", "DEFAULT":
		return domain.VariantDefault, true
	case "1", "variant", "VARIANT":
		return domain.VariantAlternate, true
	}
	if n, err := strconv.Atoi(s); err == nil {
		v := domain.Variant(n)
		return v, v.Valid()
	}
	return 0, false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
