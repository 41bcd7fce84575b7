package repository

import (
	"context"
	"errors"

	"github.com/graficaops/envelopamento-api/internal/models"
	"gorm.io/gorm"
)

// ErrProductNotFound is returned when a catalog product does not exist
var ErrProductNotFound = errors.New("product not found")

// CatalogRepository defines read access to parts and products
type CatalogRepository interface {
	ListParts(ctx context.Context) ([]models.Part, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
	GetProduct(ctx context.Context, id uint) (*models.Product, error)
}

type catalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) ListParts(ctx context.Context) ([]models.Part, error) {
	var parts []models.Part
	err := r.db.WithContext(ctx).Order("name ASC").Find(&parts).Error
	return parts, err
}

func (r *catalogRepository) ListProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).Order("name ASC").Find(&products).Error
	return products, err
}

func (r *catalogRepository) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).First(&product, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}
