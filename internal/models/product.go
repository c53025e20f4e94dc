package models

type Product struct {
	ID               string  `json:"id" yaml:"id"`
	Barcode          string  `json:"barcode" yaml:"barcode"`
	Name             string  `json:"name" yaml:"name"`
	Brand            string  `json:"brand" yaml:"brand"`
	Description      string  `json:"description" yaml:"description"`
	Weight           string  `json:"weight,omitempty" yaml:"weight"`
	ImageURL         string  `json:"image_url,omitempty" yaml:"image_url"`
	Category         string  `json:"category" yaml:"category"`
	Price            float64 `json:"price" yaml:"price"`
	EcologicalScore  int     `json:"ecological_score" yaml:"ecological_score"`
	NutritionalScore *int    `json:"nutritional_score" yaml:"nutritional_score"` // nil for non-food products
}

// IsFood reports whether the product carries a nutritional score.
func (p Product) IsFood() bool {
	return p.NutritionalScore != nil
}

// Clone returns a copy that does not share the nutritional score pointer.
func (p Product) Clone() Product {
	if p.NutritionalScore != nil {
		p.NutritionalScore = IntPtr(*p.NutritionalScore)
	}
	return p
}

type Category struct {
	Name     string `json:"name" yaml:"name"`
	ImageURL string `json:"image_url,omitempty" yaml:"image_url"`
}

type Store struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Address   string    `json:"address,omitempty" yaml:"address"`
	Latitude  float64   `json:"latitude" yaml:"latitude"`
	Longitude float64   `json:"longitude" yaml:"longitude"`
	Products  []Product `json:"-" yaml:"-"`
}

// IntPtr is a small helper for optional scores.
func IntPtr(v int) *int {
	return &v
}
