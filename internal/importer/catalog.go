package importer

import (
	"github.com/google/uuid"
	"order-import-service/internal/models"
)

// Catalog is the per-run lookup context for products and variants. It is built once from
// bulk-loaded data and updated as the import creates new entries, so later items in the
// same run reuse them.
type Catalog struct {
	products map[uuid.UUID]map[string]*models.Product
	variants map[uuid.UUID]map[string]*models.ProductVariant
}

// NewCatalog indexes products (with their variants preloaded) by shop and normalized name
func NewCatalog(products []*models.Product) *Catalog {
	c := &Catalog{
		products: make(map[uuid.UUID]map[string]*models.Product),
		variants: make(map[uuid.UUID]map[string]*models.ProductVariant),
	}
	for _, p := range products {
		// first product wins when a shop has duplicate names
		if c.FindProduct(p.ShopID, p.Name) == nil {
			c.AddProduct(p)
		}
		for _, v := range p.Variants {
			if c.FindVariant(p.ID, v.Name, colorOf(v)) == nil {
				c.AddVariant(v)
			}
		}
	}
	return c
}

// FindProduct matches on the exact normalized name within the shop
func (c *Catalog) FindProduct(shopID uuid.UUID, name string) *models.Product {
	return c.products[shopID][Normalize(name)]
}

// AddProduct registers a product under its shop
func (c *Catalog) AddProduct(p *models.Product) {
	byName, ok := c.products[p.ShopID]
	if !ok {
		byName = make(map[string]*models.Product)
		c.products[p.ShopID] = byName
	}
	byName[Normalize(p.Name)] = p
}

// FindVariant looks up a variant by (size, color); a raw title is looked up as a size
func (c *Catalog) FindVariant(productID uuid.UUID, size, color string) *models.ProductVariant {
	return c.variants[productID][VariantKey(size, color)]
}

// AddVariant registers a variant under its product
func (c *Catalog) AddVariant(v *models.ProductVariant) {
	byKey, ok := c.variants[v.ProductID]
	if !ok {
		byKey = make(map[string]*models.ProductVariant)
		c.variants[v.ProductID] = byKey
	}
	byKey[VariantKey(v.Name, colorOf(v))] = v
}

// VariantKey is the lookup key of a (size, color) pair
func VariantKey(size, color string) string {
	return Normalize(size) + "\x1f" + Normalize(color)
}

func colorOf(v *models.ProductVariant) string {
	if v.ColorName == nil {
		return ""
	}
	return *v.ColorName
}
