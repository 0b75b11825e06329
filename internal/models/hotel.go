package models

import "time"

// Hotel is the property profile. Nested sections are free-form documents.
type Hotel struct {
	ID               int64          `json:"id"`
	Name             string         `json:"name"`
	Address          string         `json:"address"`
	ContactNumbers   []string       `json:"contactNumbers"`
	CheckInTime      string         `json:"checkInTime"`
	CheckOutTime     string         `json:"checkOutTime"`
	Logo             string         `json:"logo"`
	FoodAndDining    map[string]any `json:"foodAndDining,omitempty"`
	HostDetails      map[string]any `json:"hostDetails,omitempty"`
	CaretakerDetails map[string]any `json:"caretakerDetails,omitempty"`
	Email            string         `json:"email"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// HotelPatch carries the optional fields of a partial hotel update. A nil
// field is left untouched.
type HotelPatch struct {
	Address          *string        `json:"address"`
	ContactNumbers   *[]string      `json:"contactNumbers"`
	CheckInTime      *string        `json:"checkInTime"`
	CheckOutTime     *string        `json:"checkOutTime"`
	Logo             *string        `json:"logo"`
	FoodAndDining    map[string]any `json:"foodAndDining"`
	HostDetails      map[string]any `json:"hostDetails"`
	CaretakerDetails map[string]any `json:"caretakerDetails"`
	Email            *string        `json:"email"`
}

func (p *HotelPatch) IsEmpty() bool {
	return p.Address == nil && p.ContactNumbers == nil && p.CheckInTime == nil &&
		p.CheckOutTime == nil && p.Logo == nil && p.FoodAndDining == nil &&
		p.HostDetails == nil && p.CaretakerDetails == nil && p.Email == nil
}

// Apply copies every set field onto h.
func (p *HotelPatch) Apply(h *Hotel) {
	if p.Address != nil {
		h.Address = *p.Address
	}
	if p.ContactNumbers != nil {
		h.ContactNumbers = *p.ContactNumbers
	}
	if p.CheckInTime != nil {
		h.CheckInTime = *p.CheckInTime
	}
	if p.CheckOutTime != nil {
		h.CheckOutTime = *p.CheckOutTime
	}
	if p.Logo != nil {
		h.Logo = *p.Logo
	}
	if p.FoodAndDining != nil {
		h.FoodAndDining = p.FoodAndDining
	}
	if p.HostDetails != nil {
		h.HostDetails = p.HostDetails
	}
	if p.CaretakerDetails != nil {
		h.CaretakerDetails = p.CaretakerDetails
	}
	if p.Email != nil {
		h.Email = *p.Email
	}
}
