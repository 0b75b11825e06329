// Package pricing turns a stay request into a chargeable amount.
//
// All amounts are whole currency units. The length-of-stay discount is applied
// to the room subtotal, the result is rounded to form the taxable base, and
// taxes are added on top of it.
package pricing

import (
	"errors"
	"fmt"
	"math"

	"hotelsite/internal/models"
)

var ErrInvalidInput = errors.New("invalid pricing input")

const (
	TaxVAT        = "vat"
	TaxServiceTax = "service_tax"
	TaxOther      = "other"
)

// Request describes one stay. NightlyRates, when set, holds one rate per night
// and replaces BasePrice/DiscountedPrice for the corresponding night.
type Request struct {
	BasePrice       int64
	DiscountedPrice int64
	NightlyRates    []int64
	Rooms           int
	Nights          int
	Guests          int
	Capacity        int
	Taxes           models.TaxRates
}

type TaxLine struct {
	Name   string  `json:"name"`
	Rate   float64 `json:"rate"`
	Amount int64   `json:"amount"`
}

type Quote struct {
	Nights            int       `json:"nights"`
	Rooms             int       `json:"rooms"`
	RequiredRooms     int       `json:"required_rooms"`
	PerNightEffective int64     `json:"per_night_effective"`
	Subtotal          int64     `json:"subtotal"`
	DiscountPercent   int       `json:"discount_percent"`
	BaseAmount        int64     `json:"base_amount"`
	TaxAmount         int64     `json:"tax_amount"`
	Total             int64     `json:"total"`
	Taxes             []TaxLine `json:"taxes"`
}

// StayPercent returns the share of the subtotal charged for a stay of the
// given length: 90 from five nights, 95 for two to four, 100 otherwise.
func StayPercent(nights int) int {
	switch {
	case nights >= 5:
		return 90
	case nights > 1:
		return 95
	default:
		return 100
	}
}

// StayMultiplier is StayPercent as a fraction.
func StayMultiplier(nights int) float64 {
	return float64(StayPercent(nights)) / 100
}

// RequiredRooms is the minimum number of rooms that can hold guests.
func RequiredRooms(guests, capacity int) int {
	if guests <= 0 || capacity <= 0 {
		return 0
	}
	return (guests + capacity - 1) / capacity
}

// PerNight picks the discounted rate when one is set.
func PerNight(basePrice, discountedPrice int64) int64 {
	if discountedPrice > 0 {
		return discountedPrice
	}
	return basePrice
}

func (r Request) validate() error {
	switch {
	case r.BasePrice < 0:
		return fmt.Errorf("%w: base price must not be negative", ErrInvalidInput)
	case r.DiscountedPrice < 0:
		return fmt.Errorf("%w: discounted price must not be negative", ErrInvalidInput)
	case r.Rooms < 1:
		return fmt.Errorf("%w: at least one room is required", ErrInvalidInput)
	case r.Nights < 0:
		return fmt.Errorf("%w: nights must not be negative", ErrInvalidInput)
	case r.Guests < 0:
		return fmt.Errorf("%w: guests must not be negative", ErrInvalidInput)
	case r.Capacity < 0:
		return fmt.Errorf("%w: capacity must not be negative", ErrInvalidInput)
	case r.Taxes.VAT < 0 || r.Taxes.ServiceTax < 0 || r.Taxes.Other < 0:
		return fmt.Errorf("%w: tax rates must not be negative", ErrInvalidInput)
	}
	if r.NightlyRates != nil {
		if len(r.NightlyRates) != r.Nights {
			return fmt.Errorf("%w: %d nightly rates for %d nights", ErrInvalidInput, len(r.NightlyRates), r.Nights)
		}
		for _, rate := range r.NightlyRates {
			if rate < 0 {
				return fmt.Errorf("%w: nightly rate must not be negative", ErrInvalidInput)
			}
		}
	}
	return nil
}

// Calculate prices a stay. The number of rooms charged is the larger of the
// requested rooms and the rooms needed to fit the guests.
func Calculate(req Request) (Quote, error) {
	if err := req.validate(); err != nil {
		return Quote{}, err
	}

	required := RequiredRooms(req.Guests, req.Capacity)
	rooms := req.Rooms
	if required > rooms {
		rooms = required
	}

	perNight := PerNight(req.BasePrice, req.DiscountedPrice)
	var roomNights int64
	if req.NightlyRates != nil {
		for _, rate := range req.NightlyRates {
			roomNights += rate
		}
		if req.Nights > 0 {
			perNight = roundDiv(roomNights, int64(req.Nights))
		}
	} else {
		roomNights = perNight * int64(req.Nights)
	}

	subtotal := roomNights * int64(rooms)
	percent := StayPercent(req.Nights)
	base := roundDiv(subtotal*int64(percent), 100)

	q := Quote{
		Nights:            req.Nights,
		Rooms:             rooms,
		RequiredRooms:     required,
		PerNightEffective: perNight,
		Subtotal:          subtotal,
		DiscountPercent:   100 - percent,
		BaseAmount:        base,
		TaxAmount:         percentOf(base, req.Taxes.Sum()),
		Taxes: []TaxLine{
			{Name: TaxVAT, Rate: req.Taxes.VAT, Amount: percentOf(base, req.Taxes.VAT)},
			{Name: TaxServiceTax, Rate: req.Taxes.ServiceTax, Amount: percentOf(base, req.Taxes.ServiceTax)},
			{Name: TaxOther, Rate: req.Taxes.Other, Amount: percentOf(base, req.Taxes.Other)},
		},
	}
	q.Total = q.BaseAmount + q.TaxAmount
	return q, nil
}

// CapacityTotal is the plain capacity-driven price: base rate for every
// required room and night, without stay discounts or taxes.
func CapacityTotal(basePrice int64, nights, guests, capacity int) int64 {
	return basePrice * int64(nights) * int64(RequiredRooms(guests, capacity))
}

// roundDiv divides non-negative a by b rounding half up.
func roundDiv(a, b int64) int64 {
	return (2*a + b) / (2 * b)
}

func percentOf(amount int64, rate float64) int64 {
	return int64(math.Round(float64(amount) * rate / 100))
}
