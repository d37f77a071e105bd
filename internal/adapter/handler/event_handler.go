package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/srgjo27/event_escrow/internal/core/domain"
	"github.com/srgjo27/event_escrow/internal/core/services"
)

type LedgerResponse struct {
	Held     int64                 `json:"held"`
	Balances []BalanceResponse     `json:"balances"`
	Entries  []LedgerEntryResponse `json:"entries"`
}

type BalanceResponse struct {
	Participant string `json:"participant"`
	Held        int64  `json:"held"`
	PaidOut     int64  `json:"paid_out"`
}

type LedgerEntryResponse struct {
	ID          string `json:"id"`
	Participant string `json:"participant"`
	Kind        string `json:"kind"`
	Amount      int64  `json:"amount"`
	Reason      string `json:"reason,omitempty"`
	CreatedAt   string `json:"created_at"`
}

func eventID(r *http.Request) domain.EventID {
	return domain.EventID(chi.URLParam(r, "id"))
}

func (h *EscrowHandler) Organizer(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"organizer": h.svc.Organizer().String()})
}

func (h *EscrowHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	var req services.CreateEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	resp, err := h.svc.CreateEvent(r.Context(), caller, req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

func (h *EscrowHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.GetEvent(r.Context(), eventID(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *EscrowHandler) Fee(w http.ResponseWriter, r *http.Request) {
	id := eventID(r)
	fee, err := h.svc.FeeOf(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "fee": fee})
}

func (h *EscrowHandler) Deadline(w http.ResponseWriter, r *http.Request) {
	id := eventID(r)
	deadline, err := h.svc.CancellationDeadline(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":                    id,
		"cancellation_deadline": deadline.Format(time.RFC3339),
		"unix":                  deadline.Unix(),
	})
}

func (h *EscrowHandler) Ledger(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	statement, err := h.svc.EscrowLedger(r.Context(), caller, eventID(r))
	if err != nil {
		respondError(w, r, err)
		return
	}

	resp := LedgerResponse{
		Held:     statement.Held,
		Balances: make([]BalanceResponse, 0, len(statement.Balances)),
		Entries:  make([]LedgerEntryResponse, 0, len(statement.Entries)),
	}
	for _, b := range statement.Balances {
		resp.Balances = append(resp.Balances, BalanceResponse{
			Participant: b.Participant.String(),
			Held:        b.Held,
			PaidOut:     b.PaidOut,
		})
	}
	for _, e := range statement.Entries {
		resp.Entries = append(resp.Entries, LedgerEntryResponse{
			ID:          e.ID.String(),
			Participant: e.Participant.String(),
			Kind:        string(e.Kind),
			Amount:      e.Amount,
			Reason:      e.Reason,
			CreatedAt:   e.CreatedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
