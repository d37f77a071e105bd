package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type BookRequest struct {
	Amount int64 `json:"amount"`
}

type AttendanceRequest struct {
	Secret string `json:"secret"`
}

func participantParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	participant, err := uuid.Parse(chi.URLParam(r, "participant"))
	if err != nil || participant == uuid.Nil {
		writeError(w, http.StatusBadRequest, "invalid participant id")
		return uuid.Nil, false
	}
	return participant, true
}

func (h *EscrowHandler) Book(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	var req BookRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	resp, err := h.svc.Book(r.Context(), caller, eventID(r), req.Amount)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

func (h *EscrowHandler) MyBooking(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	resp, err := h.svc.MyBooking(r.Context(), caller, eventID(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *EscrowHandler) BookingOf(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	participant, ok := participantParam(w, r)
	if !ok {
		return
	}

	resp, err := h.svc.BookingOf(r.Context(), caller, eventID(r), participant)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *EscrowHandler) RefundSelf(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	resp, err := h.svc.RefundSelfThroughCancellation(r.Context(), caller, eventID(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *EscrowHandler) RefundParticipant(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	participant, ok := participantParam(w, r)
	if !ok {
		return
	}

	resp, err := h.svc.RefundParticipantThroughCancellation(r.Context(), caller, eventID(r), participant)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *EscrowHandler) RefundThroughAttendanceProof(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	var req AttendanceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	resp, err := h.svc.RefundThroughAttendanceProof(r.Context(), caller, eventID(r), req.Secret)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
