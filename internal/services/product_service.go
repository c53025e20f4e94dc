package services

import (
	"purepick/internal/catalog"
	"purepick/internal/models"
)

// ProductService pages and searches a store's catalog.
type ProductService struct {
	catalog *catalog.Catalog
}

func NewProductService(c *catalog.Catalog) *ProductService {
	return &ProductService{catalog: c}
}

// GetAllProducts returns one page of the store's products and the total count.
func (s *ProductService) GetAllProducts(storeID string, page, limit int) ([]models.Product, int, error) {
	products, err := s.catalog.Products(storeID)
	if err != nil {
		return nil, 0, err
	}
	return paginate(products, page, limit), len(products), nil
}

// StoreProducts returns the full assortment of a store.
func (s *ProductService) StoreProducts(storeID string) ([]models.Product, error) {
	return s.catalog.Products(storeID)
}

func (s *ProductService) GetProductByID(storeID, productID string) (models.Product, error) {
	return s.catalog.Product(storeID, productID)
}

func (s *ProductService) SearchProducts(storeID, query, category string) ([]models.Product, error) {
	products, err := s.catalog.Search(storeID, query, category)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, nil
}

func (s *ProductService) Categories(storeID string) ([]models.Category, error) {
	return s.catalog.Categories(storeID)
}

// CategoryNames lists every catalog category; it is what the analysis
// service may choose from.
func (s *ProductService) CategoryNames() []string {
	return s.catalog.CategoryNames()
}

func paginate(products []models.Product, page, limit int) []models.Product {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	start := (page - 1) * limit
	if start >= len(products) {
		return []models.Product{}
	}
	end := start + limit
	if end > len(products) {
		end = len(products)
	}
	return products[start:end]
}
