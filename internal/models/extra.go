package models

const (
	PriceTypePerNight = "per-night"
	PriceTypeOneTime  = "one-time"
)

// Extra is an add-on service from the static extras catalog. PricePerNight
// holds the price for both price types; for one-time extras it is a flat
// charge regardless of the night count.
type Extra struct {
	ID            string  `yaml:"id" json:"id"`
	Name          string  `yaml:"name" json:"name"`
	Description   string  `yaml:"description" json:"description"`
	PricePerNight float64 `yaml:"price_per_night" json:"price_per_night"`
	PriceType     string  `yaml:"price_type" json:"price_type"`
}
