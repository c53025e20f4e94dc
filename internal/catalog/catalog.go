// Package catalog loads the per-store product catalog and answers read-only
// lookups against it.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"purepick/internal/models"
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

var (
	ErrStoreNotFound   = errors.New("store not found")
	ErrProductNotFound = errors.New("product not found")
)

type storeEntry struct {
	models.Store   `yaml:",inline"`
	Assortment     []string           `yaml:"assortment"`
	PriceOverrides map[string]float64 `yaml:"price_overrides"`
}

type file struct {
	Categories []models.Category `yaml:"categories"`
	Products   []models.Product  `yaml:"products"`
	Stores     []storeEntry      `yaml:"stores"`
}

// Catalog is immutable after Load, so it is safe for concurrent use.
type Catalog struct {
	categories []models.Category
	stores     []models.Store
	byStore    map[string]int
}

// Load reads the catalog at path, or the embedded default catalog when path is empty.
func Load(path string) (*Catalog, error) {
	data := defaultCatalog
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", path, err)
		}
	}
	return Parse(data)
}

// Parse builds a catalog from YAML and validates it.
func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	categories := make(map[string]bool, len(f.Categories))
	for _, c := range f.Categories {
		if c.Name == "" {
			return nil, fmt.Errorf("category with empty name")
		}
		categories[c.Name] = true
	}

	products := make(map[string]models.Product, len(f.Products))
	barcodes := make(map[string]string, len(f.Products))
	for _, p := range f.Products {
		if err := validateProduct(p, categories); err != nil {
			return nil, err
		}
		if _, dup := products[p.ID]; dup {
			return nil, fmt.Errorf("duplicate product id %q", p.ID)
		}
		if other, dup := barcodes[p.Barcode]; dup {
			return nil, fmt.Errorf("barcode %q used by %q and %q", p.Barcode, other, p.ID)
		}
		products[p.ID] = p
		barcodes[p.Barcode] = p.ID
	}

	if len(f.Stores) == 0 {
		return nil, fmt.Errorf("catalog has no stores")
	}

	c := &Catalog{
		categories: f.Categories,
		byStore:    make(map[string]int, len(f.Stores)),
	}
	for _, entry := range f.Stores {
		if entry.ID == "" {
			return nil, fmt.Errorf("store with empty id")
		}
		if _, dup := c.byStore[entry.ID]; dup {
			return nil, fmt.Errorf("duplicate store id %q", entry.ID)
		}

		store := entry.Store
		if len(entry.Assortment) == 0 {
			store.Products = append([]models.Product(nil), f.Products...)
		} else {
			for _, id := range entry.Assortment {
				p, ok := products[id]
				if !ok {
					return nil, fmt.Errorf("store %q lists unknown product %q", entry.ID, id)
				}
				store.Products = append(store.Products, p)
			}
		}
		for i := range store.Products {
			if price, ok := entry.PriceOverrides[store.Products[i].ID]; ok {
				if price < 0 {
					return nil, fmt.Errorf("store %q: negative price for %q", entry.ID, store.Products[i].ID)
				}
				store.Products[i].Price = price
			}
		}

		c.byStore[store.ID] = len(c.stores)
		c.stores = append(c.stores, store)
	}
	return c, nil
}

func validateProduct(p models.Product, categories map[string]bool) error {
	switch {
	case p.ID == "":
		return fmt.Errorf("product with empty id")
	case p.Barcode == "":
		return fmt.Errorf("product %q has no barcode", p.ID)
	case !categories[p.Category]:
		return fmt.Errorf("product %q has unknown category %q", p.ID, p.Category)
	case p.Price < 0:
		return fmt.Errorf("product %q has negative price", p.ID)
	case p.EcologicalScore < 0 || p.EcologicalScore > 100:
		return fmt.Errorf("product %q has ecological score out of range", p.ID)
	case p.NutritionalScore != nil && (*p.NutritionalScore < 0 || *p.NutritionalScore > 100):
		return fmt.Errorf("product %q has nutritional score out of range", p.ID)
	}
	return nil
}

// Stores lists the stores without their product lists.
func (c *Catalog) Stores() []models.Store {
	out := make([]models.Store, len(c.stores))
	for i, s := range c.stores {
		s.Products = nil
		out[i] = s
	}
	return out
}

func (c *Catalog) Store(id string) (models.Store, error) {
	i, ok := c.byStore[id]
	if !ok {
		return models.Store{}, fmt.Errorf("%w: %s", ErrStoreNotFound, id)
	}
	s := c.stores[i]
	s.Products = nil
	return s, nil
}

// DefaultStore is the store new sessions start in.
func (c *Catalog) DefaultStore() models.Store {
	s := c.stores[0]
	s.Products = nil
	return s
}

// Products returns a copy of the store's products in catalog order.
func (c *Catalog) Products(storeID string) ([]models.Product, error) {
	i, ok := c.byStore[storeID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrStoreNotFound, storeID)
	}
	src := c.stores[i].Products
	out := make([]models.Product, len(src))
	for j, p := range src {
		out[j] = p.Clone()
	}
	return out, nil
}

func (c *Catalog) Product(storeID, productID string) (models.Product, error) {
	products, err := c.Products(storeID)
	if err != nil {
		return models.Product{}, err
	}
	for _, p := range products {
		if p.ID == productID {
			return p, nil
		}
	}
	return models.Product{}, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
}

// Categories returns the categories that have at least one product in the store.
func (c *Catalog) Categories(storeID string) ([]models.Category, error) {
	products, err := c.Products(storeID)
	if err != nil {
		return nil, err
	}
	present := make(map[string]bool)
	for _, p := range products {
		present[p.Category] = true
	}
	var out []models.Category
	for _, cat := range c.categories {
		if present[cat.Name] {
			out = append(out, cat)
		}
	}
	return out, nil
}

// CategoryNames lists every category the catalog knows, across all stores.
func (c *Catalog) CategoryNames() []string {
	names := make([]string, len(c.categories))
	for i, cat := range c.categories {
		names[i] = cat.Name
	}
	return names
}

// Search matches query against product name and category, case-insensitively.
// A non-empty category restricts results to that exact category.
func (c *Catalog) Search(storeID, query, category string) ([]models.Product, error) {
	products, err := c.Products(storeID)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))

	var out []models.Product
	for _, p := range products {
		if category != "" && p.Category != category {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(p.Name), q) &&
			!strings.Contains(strings.ToLower(p.Category), q) {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
