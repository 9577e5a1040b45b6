package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"parkfacil/internal/db"
	"parkfacil/internal/service"
)

type SpotHandler struct {
	Service *service.OperatorService
}

func NewSpotHandler(svc *service.OperatorService) *SpotHandler {
	return &SpotHandler{Service: svc}
}

func (h *SpotHandler) CreateSpot(w http.ResponseWriter, r *http.Request) {
	var req CreateSpotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.Number == "" {
		http.Error(w, "number is required", http.StatusBadRequest)
		return
	}
	spot, err := h.Service.CreateSpot(req.Number, db.SpotCategory(req.Category), req.HourlyRateCents)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSpotResponse(spot))
}

func (h *SpotHandler) ListSpots(w http.ResponseWriter, r *http.Request) {
	spots, err := h.Service.ListSpots()
	if err != nil {
		writeError(w, err)
		return
	}
	h.writeSpots(w, spots)
}

func (h *SpotHandler) ListAvailableSpots(w http.ResponseWriter, r *http.Request) {
	spots, err := h.Service.ListAvailableSpots()
	if err != nil {
		writeError(w, err)
		return
	}
	h.writeSpots(w, spots)
}

func (h *SpotHandler) writeSpots(w http.ResponseWriter, spots []db.ParkingSpot) {
	out := make([]SpotResponse, 0, len(spots))
	for i := range spots {
		out = append(out, toSpotResponse(&spots[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *SpotHandler) UpdateSpotRate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}
	var req UpdateSpotRateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.HourlyRateCents <= 0 {
		http.Error(w, "hourly_rate_cents must be positive", http.StatusBadRequest)
		return
	}
	if err := h.Service.UpdateSpotRate(id, req.HourlyRateCents); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Spot rate updated"})
}

func (h *SpotHandler) DeleteSpot(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}
	if err := h.Service.DeleteSpot(id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Spot deleted"})
}

func (h *SpotHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.Stats()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
