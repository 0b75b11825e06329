package models

import (
	"strings"
	"time"
)

type RoomType string

const (
	RoomTypeSuite RoomType = "Suite"
	RoomTypeRoom  RoomType = "Room"
)

func (t RoomType) Valid() bool {
	return t == RoomTypeSuite || t == RoomTypeRoom
}

// Room is a catalog entry. Price and DiscountedPrice are nightly rates in whole
// currency units; DiscountedPrice of 0 means no discount.
type Room struct {
	ID              int64     `yaml:"id" json:"id"`
	Name            string    `yaml:"name" json:"name"`
	Description     string    `yaml:"description" json:"description"`
	Images          []string  `yaml:"images" json:"images"`
	Price           int64     `yaml:"price" json:"price"`
	DiscountedPrice int64     `yaml:"discounted_price" json:"discounted_price"`
	Rating          float64   `yaml:"rating" json:"rating"`
	Type            RoomType  `yaml:"type" json:"type"`
	Capacity        int       `yaml:"capacity" json:"capacity"`
	Amenities       []string  `yaml:"amenities" json:"amenities"`
	Inventory       int       `yaml:"inventory" json:"inventory"`
	SortOrder       int64     `yaml:"sort_order" json:"sort_order"`
	IsActive        bool      `yaml:"is_active" json:"is_active"`
	CreatedAt       time.Time `yaml:"created_at" json:"created_at"`
	UpdatedAt       time.Time `yaml:"updated_at" json:"updated_at"`
}

// NightlyRate returns the catalog rate charged per room-night.
func (r *Room) NightlyRate() int64 {
	if r.DiscountedPrice > 0 {
		return r.DiscountedPrice
	}
	return r.Price
}

func (r *Room) HasAmenity(name string) bool {
	for _, a := range r.Amenities {
		if strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(name)) {
			return true
		}
	}
	return false
}

// RoomFilter narrows the public catalog. Zero values disable a criterion.
type RoomFilter struct {
	Type     RoomType
	Guests   int
	MaxPrice int64
	Amenity  string
}

// Match reports whether the room satisfies every set criterion. Guests only
// excludes rooms that could not host the party even with all units booked.
func (f RoomFilter) Match(r *Room) bool {
	if f.Type != "" && r.Type != f.Type {
		return false
	}
	if f.MaxPrice > 0 && r.NightlyRate() > f.MaxPrice {
		return false
	}
	if f.Amenity != "" && !r.HasAmenity(f.Amenity) {
		return false
	}
	if f.Guests > 0 && r.Inventory > 0 && r.Capacity*r.Inventory < f.Guests {
		return false
	}
	return true
}

// RoomPatch carries the optional fields of a partial room update. A nil field
// is left untouched.
type RoomPatch struct {
	Name            *string   `json:"name"`
	Description     *string   `json:"description"`
	Images          *[]string `json:"images"`
	Price           *int64    `json:"price"`
	DiscountedPrice *int64    `json:"discounted_price"`
	Rating          *float64  `json:"rating"`
	Type            *RoomType `json:"type"`
	Capacity        *int      `json:"capacity"`
	Amenities       *[]string `json:"amenities"`
	Inventory       *int      `json:"inventory"`
	SortOrder       *int64    `json:"sort_order"`
	IsActive        *bool     `json:"is_active"`
}

func (p *RoomPatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Images == nil &&
		p.Price == nil && p.DiscountedPrice == nil && p.Rating == nil &&
		p.Type == nil && p.Capacity == nil && p.Amenities == nil &&
		p.Inventory == nil && p.SortOrder == nil && p.IsActive == nil
}

// Apply copies every set field onto r.
func (p *RoomPatch) Apply(r *Room) {
	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.Images != nil {
		r.Images = *p.Images
	}
	if p.Price != nil {
		r.Price = *p.Price
	}
	if p.DiscountedPrice != nil {
		r.DiscountedPrice = *p.DiscountedPrice
	}
	if p.Rating != nil {
		r.Rating = *p.Rating
	}
	if p.Type != nil {
		r.Type = *p.Type
	}
	if p.Capacity != nil {
		r.Capacity = *p.Capacity
	}
	if p.Amenities != nil {
		r.Amenities = *p.Amenities
	}
	if p.Inventory != nil {
		r.Inventory = *p.Inventory
	}
	if p.SortOrder != nil {
		r.SortOrder = *p.SortOrder
	}
	if p.IsActive != nil {
		r.IsActive = *p.IsActive
	}
}
