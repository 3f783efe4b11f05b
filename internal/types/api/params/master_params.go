package params

import "github.com/recivo/recivo-api/internal/types/business"

// EntityParams creates or updates a billing entity. GSTIN-derived fields
// (PAN, place of supply) are filled in server-side when left blank.
type EntityParams struct {
	Name          string               `json:"name" binding:"required"`
	GstRegistered bool                 `json:"isGstRegistered"`
	GSTIN         string               `json:"gstin"`
	PAN           string               `json:"pan"`
	PlaceOfSupply string               `json:"placeOfSupply"`
	InvoicePrefix string               `json:"invoicePrefix"`
	Address       business.Address     `json:"address"`
	BankDetails   business.BankDetails `json:"bankDetails"`
}

// CustomerParams creates or updates a customer.
type CustomerParams struct {
	Name          string           `json:"name" binding:"required"`
	GstRegistered bool             `json:"isGstRegistered"`
	GSTIN         string           `json:"gstin"`
	PAN           string           `json:"pan"`
	PlaceOfSupply string           `json:"placeOfSupply"`
	Email         string           `json:"email"`
	Phone         string           `json:"phone"`
	Address       business.Address `json:"address"`
}

// ProductParams creates or updates a catalog product.
type ProductParams struct {
	Name string `json:"name" binding:"required"`
	HSN  string `json:"hsn"`
}

// PartnerParams creates or updates a partner tag.
type PartnerParams struct {
	Name string `json:"name" binding:"required"`
}
