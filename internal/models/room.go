package models

// Room is a catalog record. Catalog data is loaded once at startup and
// never mutated afterwards; the booking flow copies rooms by value.
type Room struct {
	ID               string   `yaml:"id" json:"id"`
	Slug             string   `yaml:"slug" json:"slug"`
	Name             string   `yaml:"name" json:"name"`
	Category         string   `yaml:"category" json:"category"`
	ShortDescription string   `yaml:"short_description" json:"short_description"`
	Description      string   `yaml:"description" json:"description"`
	Price            float64  `yaml:"price" json:"price"`
	OriginalPrice    float64  `yaml:"original_price" json:"original_price,omitempty"`
	Size             int      `yaml:"size" json:"size"`
	MaxGuests        int      `yaml:"max_guests" json:"max_guests"`
	Beds             string   `yaml:"beds" json:"beds"`
	Amenities        []string `yaml:"amenities" json:"amenities"`
	Images           []string `yaml:"images" json:"images"`
	Featured         bool     `yaml:"featured" json:"featured"`
	Available        bool     `yaml:"available" json:"available"`
}

// HasAmenity reports whether the room lists the given amenity key.
func (r *Room) HasAmenity(key string) bool {
	for _, a := range r.Amenities {
		if a == key {
			return true
		}
	}
	return false
}

// RoomCategory labels a catalog section.
type RoomCategory struct {
	ID    string `yaml:"id" json:"id"`
	Label string `yaml:"label" json:"label"`
}

// Amenity describes an entry of the static amenity catalog.
type Amenity struct {
	Icon  string `yaml:"icon" json:"icon"`
	Label string `yaml:"label" json:"label"`
}
