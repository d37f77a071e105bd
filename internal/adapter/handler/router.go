package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(h *EscrowHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(Logger)
	r.Use(Identify)

	r.Get("/health", HealthCheck)
	r.Get("/organizer", h.Organizer)

	r.Route("/events", func(r chi.Router) {
		r.Post("/", h.CreateEvent)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetEvent)
			r.Get("/fee", h.Fee)
			r.Get("/deadline", h.Deadline)
			r.Get("/ledger", h.Ledger)
			r.Post("/attendance", h.RefundThroughAttendanceProof)

			r.Route("/bookings", func(r chi.Router) {
				r.Post("/", h.Book)
				r.Get("/me", h.MyBooking)
				r.Post("/me/cancel", h.RefundSelf)
				r.Get("/{participant}", h.BookingOf)
				r.Post("/{participant}/cancel", h.RefundParticipant)
			})
		})
	})

	return r
}
