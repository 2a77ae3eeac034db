package catalog

import (
	"fmt"
	"sort"

	"riverside/internal/models"
)

// Catalog is the read-only room and extras inventory. It is built once
// from the catalog file at startup and shared by reference; no method
// mutates it.
type Catalog struct {
	rooms      []models.Room
	extras     []models.Extra
	categories []models.RoomCategory
	amenities  map[string]models.Amenity

	byID   map[string]int
	bySlug map[string]int
}

// New validates the catalog data and builds lookup indexes. Duplicate room
// ids/slugs and duplicate extra ids are configuration errors.
func New(rooms []models.Room, extras []models.Extra, categories []models.RoomCategory, amenities map[string]models.Amenity) (*Catalog, error) {
	c := &Catalog{
		rooms:      rooms,
		extras:     extras,
		categories: categories,
		amenities:  amenities,
		byID:       make(map[string]int, len(rooms)),
		bySlug:     make(map[string]int, len(rooms)),
	}

	for i, room := range rooms {
		if room.ID == "" {
			return nil, fmt.Errorf("room %q has empty id", room.Name)
		}
		if _, ok := c.byID[room.ID]; ok {
			return nil, fmt.Errorf("duplicate room id: %s", room.ID)
		}
		if _, ok := c.bySlug[room.Slug]; ok {
			return nil, fmt.Errorf("duplicate room slug: %s", room.Slug)
		}
		if room.MaxGuests < 1 {
			return nil, fmt.Errorf("room %s has invalid max_guests %d", room.ID, room.MaxGuests)
		}
		c.byID[room.ID] = i
		c.bySlug[room.Slug] = i
	}

	extraIDs := make(map[string]bool, len(extras))
	for _, extra := range extras {
		if extra.ID == "" {
			return nil, fmt.Errorf("extra %q has empty id", extra.Name)
		}
		if extraIDs[extra.ID] {
			return nil, fmt.Errorf("duplicate extra id: %s", extra.ID)
		}
		if extra.PriceType != models.PriceTypePerNight && extra.PriceType != models.PriceTypeOneTime {
			return nil, fmt.Errorf("extra %s has unknown price type %q", extra.ID, extra.PriceType)
		}
		extraIDs[extra.ID] = true
	}

	return c, nil
}

// Rooms returns a copy of the full room list in catalog order.
func (c *Catalog) Rooms() []models.Room {
	return append([]models.Room(nil), c.rooms...)
}

// RoomByID looks a room up by id.
func (c *Catalog) RoomByID(id string) (*models.Room, bool) {
	i, ok := c.byID[id]
	if !ok {
		return nil, false
	}
	room := c.rooms[i]
	return &room, true
}

// RoomBySlug looks a room up by URL slug.
func (c *Catalog) RoomBySlug(slug string) (*models.Room, bool) {
	i, ok := c.bySlug[slug]
	if !ok {
		return nil, false
	}
	room := c.rooms[i]
	return &room, true
}

// FeaturedRooms returns rooms flagged for the landing page.
func (c *Catalog) FeaturedRooms() []models.Room {
	var out []models.Room
	for _, room := range c.rooms {
		if room.Featured {
			out = append(out, room)
		}
	}
	return out
}

// RoomsByCategory filters by category id; "all" returns everything.
func (c *Catalog) RoomsByCategory(category string) []models.Room {
	if category == models.CategoryAll {
		return c.Rooms()
	}
	var out []models.Room
	for _, room := range c.rooms {
		if room.Category == category {
			out = append(out, room)
		}
	}
	return out
}

// AvailableRooms returns rooms currently open for booking.
func (c *Catalog) AvailableRooms() []models.Room {
	var out []models.Room
	for _, room := range c.rooms {
		if room.Available {
			out = append(out, room)
		}
	}
	return out
}

// Extras returns the extras catalog in its defined display order.
func (c *Catalog) Extras() []models.Extra {
	return append([]models.Extra(nil), c.extras...)
}

// ExtraByID looks an extra up by id.
func (c *Catalog) ExtraByID(id string) (*models.Extra, bool) {
	for _, extra := range c.extras {
		if extra.ID == id {
			e := extra
			return &e, true
		}
	}
	return nil, false
}

// Categories returns the category list for rendering filters.
func (c *Catalog) Categories() []models.RoomCategory {
	return append([]models.RoomCategory(nil), c.categories...)
}

// Amenity resolves an amenity key against the static amenity catalog.
func (c *Catalog) Amenity(key string) (models.Amenity, bool) {
	a, ok := c.amenities[key]
	return a, ok
}

// SortRooms returns a sorted copy; an unknown key keeps catalog order.
// Sorting is stable so ties keep their relative catalog order.
func SortRooms(rooms []models.Room, key string) []models.Room {
	sorted := append([]models.Room(nil), rooms...)
	switch key {
	case models.SortPriceLow:
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Price < sorted[j].Price })
	case models.SortPriceHigh:
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Price > sorted[j].Price })
	case models.SortSize:
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Size > sorted[j].Size })
	case models.SortGuests:
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].MaxGuests > sorted[j].MaxGuests })
	}
	return sorted
}

// Filters narrows a room list. Zero values mean "no constraint";
// Amenities requires every listed key to be present.
type Filters struct {
	MinPrice  float64
	MaxPrice  float64
	MinGuests int
	Amenities []string
}

// FilterRooms applies the filters to a room list.
func FilterRooms(rooms []models.Room, filters Filters) []models.Room {
	var out []models.Room
	for _, room := range rooms {
		if filters.MinPrice > 0 && room.Price < filters.MinPrice {
			continue
		}
		if filters.MaxPrice > 0 && room.Price > filters.MaxPrice {
			continue
		}
		if filters.MinGuests > 0 && room.MaxGuests < filters.MinGuests {
			continue
		}
		if !hasAllAmenities(&room, filters.Amenities) {
			continue
		}
		out = append(out, room)
	}
	return out
}

func hasAllAmenities(room *models.Room, keys []string) bool {
	for _, key := range keys {
		if !room.HasAmenity(key) {
			return false
		}
	}
	return true
}
