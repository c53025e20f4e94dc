package scan

import (
	"math/rand/v2"

	"purepick/internal/models"
)

// MaxRecommendations caps how many alternatives a scan shows.
const MaxRecommendations = 3

// shuffleFunc has the signature of rand.Shuffle.
type shuffleFunc func(n int, swap func(i, j int))

// Recommend picks up to three same-category alternatives to the scanned
// product. Strictly better products win; when there are none, products with
// identical scores are offered instead. The order is random.
func Recommend(details *models.ScannedProductDetails, sourceBarcode string, catalog []models.Product) []models.Product {
	return recommend(details, sourceBarcode, catalog, rand.Shuffle)
}

func recommend(details *models.ScannedProductDetails, sourceBarcode string, catalog []models.Product, shuffle shuffleFunc) []models.Product {
	eco := details.EcologicalScore
	nutri := nutriOrNone(details.NutritionalScore)

	better := filterCandidates(details, sourceBarcode, catalog, func(candEco, candNutri int) bool {
		if details.IsFoodProduct {
			noWorse := candEco >= eco && candNutri >= nutri
			oneBetter := candEco > eco || candNutri > nutri
			return noWorse && oneBetter
		}
		return candEco > eco
	})

	picks := better
	if len(picks) == 0 {
		picks = filterCandidates(details, sourceBarcode, catalog, func(candEco, candNutri int) bool {
			if details.IsFoodProduct {
				return candEco == eco && candNutri == nutri
			}
			return candEco == eco
		})
	}

	shuffle(len(picks), func(i, j int) { picks[i], picks[j] = picks[j], picks[i] })
	if len(picks) > MaxRecommendations {
		picks = picks[:MaxRecommendations]
	}
	return picks
}

func filterCandidates(details *models.ScannedProductDetails, sourceBarcode string, catalog []models.Product, keep func(eco, nutri int) bool) []models.Product {
	out := []models.Product{}
	for _, p := range catalog {
		if p.Category != details.Category || p.Barcode == sourceBarcode {
			continue
		}
		if keep(p.EcologicalScore, nutriOrNone(p.NutritionalScore)) {
			out = append(out, p.Clone())
		}
	}
	return out
}

// nutriOrNone maps a missing nutritional score to -1 so that it never ties
// with a real score of 0.
func nutriOrNone(score *int) int {
	if score == nil {
		return -1
	}
	return *score
}
