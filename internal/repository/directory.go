package repository

import "parkfacil/internal/db"

// Directory combines the account and vehicle repositories into the
// IdentityDirectory the reservation engine consumes.
type Directory struct {
	Accounts *AccountRepository
	Vehicles *VehicleRepository
}

func NewDirectory(accounts *AccountRepository, vehicles *VehicleRepository) *Directory {
	return &Directory{Accounts: accounts, Vehicles: vehicles}
}

func (d *Directory) Customer(id int) (*db.Customer, error) {
	return d.Accounts.Customer(id)
}

func (d *Directory) Vehicle(id int) (*db.Vehicle, error) {
	return d.Vehicles.Vehicle(id)
}
