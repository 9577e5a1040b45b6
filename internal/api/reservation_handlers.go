package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"parkfacil/internal/pricing"
	"parkfacil/internal/service"
)

// finalizeAttempts bounds the automatic retry of a finalize that failed with
// a retryable transaction error.
const finalizeAttempts = 3

type ReservationHandler struct {
	Service  *service.ReservationService
	Payments *service.PaymentService // optional
}

func NewReservationHandler(svc *service.ReservationService, payments *service.PaymentService) *ReservationHandler {
	return &ReservationHandler{Service: svc, Payments: payments}
}

func (h *ReservationHandler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var req CreateReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	res, err := h.Service.CreateReservation(req.CustomerID, req.VehicleID, req.SpotID, req.EntryTime, req.ExpectedExit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toReservationResponse(res))
}

func (h *ReservationHandler) GetReservation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}
	res, err := h.Service.GetReservation(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationResponse(res))
}

func (h *ReservationHandler) GetReservationByCode(w http.ResponseWriter, r *http.Request) {
	res, err := h.Service.GetReservationByCode(mux.Vars(r)["code"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationResponse(res))
}

func (h *ReservationHandler) CompleteReservation(w http.ResponseWriter, r *http.Request) {
	h.complete(w, r, "")
}

func (h *ReservationHandler) OperatorFinalize(w http.ResponseWriter, r *http.Request) {
	var req OperatorFinalizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}
	res, err := h.Service.RetryFinalize(id, req.ExitTime, req.Notes, finalizeAttempts)
	if err != nil {
		writeError(w, err)
		return
	}
	h.recordPayment(res.ID)
	writeJSON(w, http.StatusOK, toReservationResponse(res))
}

func (h *ReservationHandler) complete(w http.ResponseWriter, r *http.Request, note string) {
	var req CompleteReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}
	res, err := h.Service.RetryFinalize(id, req.ExitTime, note, finalizeAttempts)
	if err != nil {
		writeError(w, err)
		return
	}
	h.recordPayment(res.ID)
	writeJSON(w, http.StatusOK, toReservationResponse(res))
}

func (h *ReservationHandler) recordPayment(reservationID int) {
	if h.Payments == nil {
		return
	}
	res, err := h.Service.GetReservation(reservationID)
	if err != nil {
		log.Printf("Could not reload reservation %d for payment record: %v", reservationID, err)
		return
	}
	if _, err := h.Payments.RecordForReservation(res); err != nil {
		log.Printf("Could not create payment record for reservation %s: %v", res.Code, err)
	}
}

func (h *ReservationHandler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}
	res, err := h.Service.CancelReservation(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationResponse(res))
}

func (h *ReservationHandler) ActiveBySpot(w http.ResponseWriter, r *http.Request) {
	spotID, err := strconv.Atoi(mux.Vars(r)["spotId"])
	if err != nil {
		http.Error(w, "Invalid spot ID", http.StatusBadRequest)
		return
	}
	res, err := h.Service.ActiveBySpot(spotID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationResponse(res))
}

func (h *ReservationHandler) SearchByPlate(w http.ResponseWriter, r *http.Request) {
	plate := r.URL.Query().Get("plate")
	reservations, err := h.Service.SearchByPlate(plate)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]ReservationResponse, 0, len(reservations))
	for i := range reservations {
		out = append(out, toReservationResponse(&reservations[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ReservationHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var req QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	amount, err := h.Service.Quote(req.SpotID, req.EntryTime, req.ExitTime)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, QuoteResponse{AmountCents: amount, Amount: pricing.FormatCents(amount)})
}
