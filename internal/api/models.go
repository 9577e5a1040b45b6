package api

import (
	"time"

	"parkfacil/internal/db"
	"parkfacil/internal/pricing"
)

// Reservation
type CreateReservationRequest struct {
	CustomerID   int        `json:"customer_id"`
	VehicleID    int        `json:"vehicle_id"`
	SpotID       int        `json:"spot_id"`
	EntryTime    time.Time  `json:"entry_time"`
	ExpectedExit *time.Time `json:"expected_exit,omitempty"`
}

type CompleteReservationRequest struct {
	ExitTime time.Time `json:"exit_time"`
}

type OperatorFinalizeRequest struct {
	ExitTime time.Time `json:"exit_time"`
	Notes    string    `json:"notes"`
}

type ReservationResponse struct {
	ID               int        `json:"id"`
	Code             string     `json:"code"`
	CustomerID       int        `json:"customer_id"`
	VehicleID        int        `json:"vehicle_id"`
	SpotID           int        `json:"spot_id"`
	EntryTime        time.Time  `json:"entry_time"`
	ExpectedExit     *time.Time `json:"expected_exit,omitempty"`
	ExitTime         *time.Time `json:"exit_time,omitempty"`
	TotalAmountCents *int64     `json:"total_amount_cents,omitempty"`
	TotalAmount      string     `json:"total_amount,omitempty"`
	Status           string     `json:"status"`
	OperatorNote     string     `json:"operator_note,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func toReservationResponse(res *db.Reservation) ReservationResponse {
	out := ReservationResponse{
		ID:           res.ID,
		Code:         res.Code,
		CustomerID:   res.CustomerID,
		VehicleID:    res.VehicleID,
		SpotID:       res.SpotID,
		EntryTime:    res.EntryTime,
		ExpectedExit: res.ExpectedExit,
		ExitTime:     res.ExitTime,
		Status:       string(res.Status),
		OperatorNote: res.OperatorNote,
		CreatedAt:    res.CreatedAt,
		UpdatedAt:    res.UpdatedAt,
	}
	if res.AmountCents != nil {
		out.TotalAmountCents = res.AmountCents
		out.TotalAmount = pricing.FormatCents(*res.AmountCents)
	}
	return out
}

// Quote
type QuoteRequest struct {
	SpotID    int       `json:"spot_id"`
	EntryTime time.Time `json:"entry_time"`
	ExitTime  time.Time `json:"exit_time"`
}

type QuoteResponse struct {
	AmountCents int64  `json:"amount_cents"`
	Amount      string `json:"amount"`
}

// Parking spots
type CreateSpotRequest struct {
	Number          string `json:"number"`
	Category        string `json:"category"`
	HourlyRateCents int64  `json:"hourly_rate_cents"`
}

type UpdateSpotRateRequest struct {
	HourlyRateCents int64 `json:"hourly_rate_cents"`
}

type SpotResponse struct {
	ID              int    `json:"id"`
	Number          string `json:"number"`
	Category        string `json:"category"`
	HourlyRateCents int64  `json:"hourly_rate_cents"`
	HourlyRate      string `json:"hourly_rate"`
	Status          string `json:"status"`
}

func toSpotResponse(spot *db.ParkingSpot) SpotResponse {
	return SpotResponse{
		ID:              spot.ID,
		Number:          spot.Number,
		Category:        string(spot.Category),
		HourlyRateCents: spot.HourlyRateCents,
		HourlyRate:      pricing.FormatCents(spot.HourlyRateCents),
		Status:          string(spot.Status),
	}
}

// Vehicles
type CreateVehicleRequest struct {
	Plate string `json:"plate"`
	Model string `json:"model"`
	Color string `json:"color"`
	Year  int    `json:"year"`
}

// Auth
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

// Payments
type PaymentResponse struct {
	ID            int        `json:"id"`
	ReservationID int        `json:"reservation_id"`
	Reference     string     `json:"reference"`
	AmountCents   int64      `json:"amount_cents"`
	Amount        string     `json:"amount"`
	Status        string     `json:"status"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
}

func toPaymentResponse(p *db.Payment) PaymentResponse {
	return PaymentResponse{
		ID:            p.ID,
		ReservationID: p.ReservationID,
		Reference:     p.Reference,
		AmountCents:   p.AmountCents,
		Amount:        pricing.FormatCents(p.AmountCents),
		Status:        string(p.Status),
		PaidAt:        p.PaidAt,
	}
}
