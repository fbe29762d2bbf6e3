package models

import "batchsync/core/utils"

// Product is a catalog entry, keyed by SKU for sync purposes.
type Product struct {
	ID       uint    `gorm:"primaryKey" json:"-"`
	SKU      string  `gorm:"column:sku;size:64;uniqueIndex" json:"sku"`
	Name     string  `gorm:"column:name;size:255" json:"name"`
	Brand    string  `gorm:"column:brand;size:128" json:"brand"`
	Price    float64 `gorm:"column:price" json:"price"`
	Quantity int     `gorm:"column:quantity" json:"quantity"`
	Active   bool    `gorm:"column:active" json:"active"`
}

// TableName overrides the GORM table name.
func (Product) TableName() string {
	return "products"
}

// Field implements the upsert record contract.
func (p *Product) Field(name string) (any, bool) {
	switch name {
	case "id":
		return p.ID, true
	case "sku":
		return p.SKU, true
	case "name":
		return p.Name, true
	case "brand":
		return p.Brand, true
	case "price":
		return p.Price, true
	case "quantity":
		return p.Quantity, true
	case "active":
		return p.Active, true
	}
	return nil, false
}

// SetField implements the upsert record contract. Values are coerced, since
// JSON decoding and database scanning do not always agree on numeric types.
func (p *Product) SetField(name string, value any) bool {
	switch name {
	case "id":
		p.ID = uint(utils.ToInt(value))
	case "sku":
		p.SKU = utils.ToString(value)
	case "name":
		p.Name = utils.ToString(value)
	case "brand":
		p.Brand = utils.ToString(value)
	case "price":
		p.Price = utils.ToFloat(value)
	case "quantity":
		p.Quantity = utils.ToInt(value)
	case "active":
		p.Active = utils.ToBool(value)
	default:
		return false
	}
	return true
}

// MatchFields is the default match key for product sync.
func MatchFields() []string {
	return []string{"sku"}
}

// UpdateFields is the default set of fields copied onto existing rows.
func UpdateFields() []string {
	return []string{"name", "brand", "price", "quantity", "active"}
}
