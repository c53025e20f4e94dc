package models

// UnknownProductName is what the analysis service reports when it cannot identify a barcode.
const UnknownProductName = "Unknown Product"

type ScannedProductDetails struct {
	ProductName              string    `json:"product_name"`
	Brand                    *string   `json:"brand"`
	Ingredients              string    `json:"ingredients"`
	IsFoodProduct            bool      `json:"is_food_product"`
	Category                 string    `json:"category"`
	EcologicalScore          int       `json:"ecological_score"`
	EcologicalJustification  string    `json:"ecological_justification"`
	NutritionalScore         *int      `json:"nutritional_score"`
	NutritionalJustification *string   `json:"nutritional_justification"`
	Recommendations          []Product `json:"recommendations"`
}

type ResolutionStatus string

const (
	ResolutionResolved ResolutionStatus = "resolved"
	ResolutionNotFound ResolutionStatus = "not_found"
)

type ResolutionSource string

const (
	SourceCatalog  ResolutionSource = "catalog"
	SourceCache    ResolutionSource = "cache"
	SourceAnalysis ResolutionSource = "analysis"
)

// Resolution is the tagged result of resolving a scanned barcode.
type Resolution struct {
	Status  ResolutionStatus       `json:"status"`
	Source  ResolutionSource       `json:"source"`
	Barcode string                 `json:"barcode"`
	Details *ScannedProductDetails `json:"details"`
}

func (r *Resolution) Found() bool {
	return r != nil && r.Status == ResolutionResolved
}

type ScanRequest struct {
	Barcode string `json:"barcode" binding:"required"`
}

// Clone deep-copies the details, including the recommendation list.
func (d *ScannedProductDetails) Clone() *ScannedProductDetails {
	c := *d
	if d.Brand != nil {
		brand := *d.Brand
		c.Brand = &brand
	}
	if d.NutritionalScore != nil {
		c.NutritionalScore = IntPtr(*d.NutritionalScore)
	}
	if d.NutritionalJustification != nil {
		j := *d.NutritionalJustification
		c.NutritionalJustification = &j
	}
	if d.Recommendations != nil {
		c.Recommendations = make([]Product, len(d.Recommendations))
		for i, p := range d.Recommendations {
			c.Recommendations[i] = p.Clone()
		}
	}
	return &c
}
