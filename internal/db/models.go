package db

import "time"

type SpotStatus string

const (
	SpotAvailable SpotStatus = "available"
	SpotOccupied  SpotStatus = "occupied"
	SpotReserved  SpotStatus = "reserved"
)

type SpotCategory string

const (
	CategoryRegular  SpotCategory = "regular"
	CategoryVIP      SpotCategory = "vip"
	CategoryDisabled SpotCategory = "disabled"
)

type ParkingSpot struct {
	ID              int
	Number          string
	Category        SpotCategory
	HourlyRateCents int64
	Status          SpotStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type ReservationStatus string

const (
	ReservationActive    ReservationStatus = "active"
	ReservationCompleted ReservationStatus = "completed"
	ReservationCancelled ReservationStatus = "cancelled"
)

type Reservation struct {
	ID           int
	Code         string
	CustomerID   int
	VehicleID    int
	SpotID       int
	EntryTime    time.Time
	ExpectedExit *time.Time
	ExitTime     *time.Time
	AmountCents  *int64
	Status       ReservationStatus
	OperatorNote string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Customer struct {
	ID           int
	Name         string
	Email        string
	PasswordHash string
	Phone        string
	CreatedAt    time.Time
}

type Operator struct {
	ID           int
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

type Vehicle struct {
	ID         int
	CustomerID int
	Plate      string
	Model      string
	Color      string
	Year       int
	Active     bool
	CreatedAt  time.Time
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

type Payment struct {
	ID              int
	ReservationID   int
	Reference       string
	AmountCents     int64
	Status          PaymentStatus
	StripeSessionID string
	CreatedAt       time.Time
	PaidAt          *time.Time
}
