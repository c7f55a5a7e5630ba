// Package seed holds the demo catalog used by local development and tests.
package seed

import (
	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// DemoBusinessID is the business the demo catalog belongs to
var DemoBusinessID = uuid.MustParse("6f1c2a4e-3b8d-4c1e-9a57-0d2f8e6b4c10")

var namespace = uuid.MustParse("b3a8f0d2-7c61-4e9a-8d14-52f6c0e9a731")

// Data is a seeded set of products and customers for one business
type Data struct {
	Products  []entity.Product
	Customers []entity.Customer
}

type demoProduct struct {
	code      string
	name      string
	price     string
	stock     int
	threshold int
}

var products = []demoProduct{
	{"BLN-001", "Blender", "1000", 10, 2},
	{"KTL-001", "Electric Kettle", "500", 15, 3},
	{"RCE-005", "Rice 5kg", "850", 40, 5},
	{"SGR-002", "Sugar 2kg", "320", 60, 10},
	{"TEA-250", "Tea Leaves 250g", "180", 3, 2},
	{"MLK-500", "Milk 500ml", "65", 0, 10},
}

type demoCustomer struct {
	name  string
	phone string
}

var customers = []demoCustomer{
	{"Amina Otieno", "+254700000001"},
	{"Brian Kamau", "+254700000002"},
}

// ProductID returns the stable id of the demo product with the given code
func ProductID(tenantID uuid.UUID, code string) uuid.UUID {
	return uuid.NewSHA1(namespace, []byte(tenantID.String()+"/product/"+code))
}

// CustomerID returns the stable id of the demo customer with the given name
func CustomerID(tenantID uuid.UUID, name string) uuid.UUID {
	return uuid.NewSHA1(namespace, []byte(tenantID.String()+"/customer/"+name))
}

// Catalog builds the demo data for a business. Ids are derived from the
// business id so reseeding is idempotent.
func Catalog(tenantID uuid.UUID) Data {
	var d Data
	for _, p := range products {
		d.Products = append(d.Products, entity.Product{
			ID:                ProductID(tenantID, p.code),
			TenantID:          tenantID,
			Name:              p.name,
			Code:              p.code,
			UnitPrice:         decimal.RequireFromString(p.price),
			Stock:             p.stock,
			LowStockThreshold: p.threshold,
		})
	}
	for _, c := range customers {
		phone := c.phone
		d.Customers = append(d.Customers, entity.Customer{
			ID:         CustomerID(tenantID, c.name),
			TenantID:   tenantID,
			Name:       c.name,
			Phone:      &phone,
			TotalSpent: decimal.Zero,
		})
	}
	return d
}
