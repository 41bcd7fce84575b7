package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/graficaops/envelopamento-api/internal/services"
)

type CatalogHandler struct {
	catalog services.PartCatalog
}

func NewCatalogHandler(catalog services.PartCatalog) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// @Summary List Parts
// @Description Reusable named surfaces with their dimensions in meters
// @Tags Catalog
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /catalog/parts [get]
func (h *CatalogHandler) Parts(c *gin.Context) {
	parts, err := h.catalog.ListParts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"parts": parts})
}

// @Summary List Products
// @Tags Catalog
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /catalog/products [get]
func (h *CatalogHandler) Products(c *gin.Context) {
	products, err := h.catalog.ListProducts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// @Summary Get Product
// @Description Get a product with its current stock
// @Tags Catalog
// @Produce json
// @Param product_id path int true "Product ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /catalog/products/{product_id} [get]
func (h *CatalogHandler) Product(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("product_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID de produto inválido"})
		return
	}
	product, err := h.catalog.GetProduct(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}
