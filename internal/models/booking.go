package models

import "time"

// TaxRates are percentages applied on top of the taxable base.
type TaxRates struct {
	VAT        float64 `yaml:"vat" json:"vat"`
	ServiceTax float64 `yaml:"service_tax" json:"service_tax"`
	Other      float64 `yaml:"other" json:"other"`
}

func (t TaxRates) Sum() float64 {
	return t.VAT + t.ServiceTax + t.Other
}

type Booking struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	UserName   string    `json:"user_name"`
	UserEmail  string    `json:"user_email"`
	RoomID     int64     `json:"room_id"`
	RoomName   string    `json:"room_name"`
	CheckIn    time.Time `json:"check_in"`
	CheckOut   time.Time `json:"check_out"`
	Guests     int       `json:"guests"`
	Rooms      int       `json:"rooms"`
	BaseAmount int64     `json:"base_amount"`
	TaxAmount  int64     `json:"tax_amount"`
	TotalPrice int64     `json:"total_price"`
	Taxes      TaxRates  `json:"taxes"`
	Status     string    `json:"status"` // confirmed, cancelled
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// NightlyRates are the per-night rates the price was computed from. When
	// set, the reservation fails if the ledger no longer agrees.
	NightlyRates []int64 `json:"-"`
}

func (b *Booking) Nights() int {
	return Nights(b.CheckIn, b.CheckOut)
}

// CancelledBooking is the archived copy of a booking after cancellation.
type CancelledBooking struct {
	Booking
	CancelledAt time.Time `json:"cancelled_at"`
	Reason      string    `json:"reason,omitempty"`
}

// StayRequest is what a guest asks for when quoting or booking a room.
type StayRequest struct {
	RoomID   int64     `json:"room_id"`
	CheckIn  time.Time `json:"check_in"`
	CheckOut time.Time `json:"check_out"`
	Guests   int       `json:"guests"`
	Rooms    int       `json:"rooms"`
}

func (r *StayRequest) Nights() int {
	return Nights(r.CheckIn, r.CheckOut)
}
