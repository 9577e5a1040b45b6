package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkfacil/internal/db"
	"parkfacil/internal/repository"
	"parkfacil/internal/service"
)

var t0 = time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

func newTestRouter(t *testing.T) (*mux.Router, *repository.MemoryStore, *db.ParkingSpot) {
	t.Helper()
	store := repository.NewMemoryStore()
	spot := store.AddSpot(db.ParkingSpot{Number: "A-01", HourlyRateCents: 500})
	store.AddCustomer(db.Customer{ID: 1, Name: "Ana", Email: "ana@example.com"})
	store.AddVehicle(db.Vehicle{ID: 1, CustomerID: 1, Plate: "ABC1D23"})

	svc := service.NewReservationService(store, store)
	svc.Identity = store
	h := NewReservationHandler(svc, nil)

	r := mux.NewRouter()
	r.HandleFunc("/reservations", h.CreateReservation).Methods("POST")
	r.HandleFunc("/reservations/quote", h.Quote).Methods("POST")
	r.HandleFunc("/reservations/search", h.SearchByPlate).Methods("GET")
	r.HandleFunc("/reservations/active-by-spot/{spotId}", h.ActiveBySpot).Methods("GET")
	r.HandleFunc("/reservations/code/{code}", h.GetReservationByCode).Methods("GET")
	r.HandleFunc("/reservations/{id}", h.GetReservation).Methods("GET")
	r.HandleFunc("/reservations/{id}/complete", h.CompleteReservation).Methods("POST")
	r.HandleFunc("/reservations/{id}/cancel", h.CancelReservation).Methods("POST")
	r.HandleFunc("/reservations/{id}/operator-finalize", h.OperatorFinalize).Methods("POST")
	return r, store, spot
}

func doJSON(t *testing.T, r *mux.Router, method, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func createReservation(t *testing.T, r *mux.Router, spotID int) ReservationResponse {
	t.Helper()
	rec := doJSON(t, r, http.MethodPost, "/reservations", CreateReservationRequest{
		CustomerID: 1, VehicleID: 1, SpotID: spotID, EntryTime: t0,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var res ReservationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res
}

func TestCreateReservationHandler(t *testing.T) {
	r, store, spot := newTestRouter(t)

	res := createReservation(t, r, spot.ID)
	assert.Equal(t, "active", res.Status)
	assert.Empty(t, res.TotalAmount)

	updated, _ := store.Get(spot.ID)
	assert.Equal(t, db.SpotOccupied, updated.Status)

	// Second creation on the same spot conflicts.
	rec := doJSON(t, r, http.MethodPost, "/reservations", CreateReservationRequest{
		CustomerID: 1, VehicleID: 1, SpotID: spot.ID, EntryTime: t0,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateReservationHandler_BadBody(t *testing.T) {
	r, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/reservations", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCompleteReservationHandler(t *testing.T) {
	r, _, spot := newTestRouter(t)
	res := createReservation(t, r, spot.ID)

	rec := doJSON(t, r, http.MethodPost, fmt.Sprintf("/reservations/%d/complete", res.ID),
		CompleteReservationRequest{ExitTime: t0.Add(90 * time.Minute)})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var completed ReservationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &completed))
	assert.Equal(t, "completed", completed.Status)
	assert.Equal(t, "7.00", completed.TotalAmount)
	require.NotNil(t, completed.TotalAmountCents)
	assert.Equal(t, int64(700), *completed.TotalAmountCents)

	// Completing again conflicts.
	rec = doJSON(t, r, http.MethodPost, fmt.Sprintf("/reservations/%d/complete", res.ID),
		CompleteReservationRequest{ExitTime: t0.Add(2 * time.Hour)})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCompleteReservationHandler_InvalidInterval(t *testing.T) {
	r, _, spot := newTestRouter(t)
	res := createReservation(t, r, spot.ID)

	rec := doJSON(t, r, http.MethodPost, fmt.Sprintf("/reservations/%d/complete", res.ID),
		CompleteReservationRequest{ExitTime: t0})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCancelReservationHandler(t *testing.T) {
	r, store, spot := newTestRouter(t)
	res := createReservation(t, r, spot.ID)

	rec := doJSON(t, r, http.MethodPost, fmt.Sprintf("/reservations/%d/cancel", res.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var cancelled ReservationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cancelled))
	assert.Equal(t, "cancelled", cancelled.Status)
	assert.Nil(t, cancelled.TotalAmountCents)
	assert.Nil(t, cancelled.ExitTime)

	updated, _ := store.Get(spot.ID)
	assert.Equal(t, db.SpotAvailable, updated.Status)
}

func TestOperatorFinalizeHandler(t *testing.T) {
	r, _, spot := newTestRouter(t)
	res := createReservation(t, r, spot.ID)

	rec := doJSON(t, r, http.MethodPost, fmt.Sprintf("/reservations/%d/operator-finalize", res.ID),
		OperatorFinalizeRequest{ExitTime: t0.Add(61 * time.Minute), Notes: "left without checkout"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var finalized ReservationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &finalized))
	assert.Equal(t, "completed", finalized.Status)
	assert.Equal(t, "left without checkout", finalized.OperatorNote)
	assert.Equal(t, "6.00", finalized.TotalAmount)
}

func TestActiveBySpotHandler(t *testing.T) {
	r, _, spot := newTestRouter(t)

	rec := doJSON(t, r, http.MethodGet, fmt.Sprintf("/reservations/active-by-spot/%d", spot.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	res := createReservation(t, r, spot.ID)
	rec = doJSON(t, r, http.MethodGet, fmt.Sprintf("/reservations/active-by-spot/%d", spot.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var active ReservationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &active))
	assert.Equal(t, res.ID, active.ID)
}

func TestGetReservationByCodeHandler(t *testing.T) {
	r, _, spot := newTestRouter(t)
	res := createReservation(t, r, spot.ID)

	rec := doJSON(t, r, http.MethodGet, "/reservations/code/"+res.Code, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var found ReservationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &found))
	assert.Equal(t, res.ID, found.ID)

	rec = doJSON(t, r, http.MethodGet, "/reservations/code/NOPE", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearchByPlateHandler(t *testing.T) {
	r, _, spot := newTestRouter(t)
	res := createReservation(t, r, spot.ID)

	rec := doJSON(t, r, http.MethodGet, "/reservations/search?plate=abc1d23", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var results []ReservationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Len(t, results, 1)
	assert.Equal(t, res.ID, results[0].ID)

	rec = doJSON(t, r, http.MethodGet, "/reservations/search", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuoteHandler(t *testing.T) {
	r, _, spot := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/reservations/quote", QuoteRequest{
		SpotID: spot.ID, EntryTime: t0, ExitTime: t0.Add(76 * time.Minute),
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var quote QuoteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &quote))
	assert.Equal(t, int64(700), quote.AmountCents)
	assert.Equal(t, "7.00", quote.Amount)
}
