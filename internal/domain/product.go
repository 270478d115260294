package domain

import (
	"fmt"
	"time"
)

// Field names one canonical product column
type Field string

const (
	FieldName         Field = "name"
	FieldSubstance    Field = "substance"
	FieldCode         Field = "code"
	FieldCategory     Field = "category"
	FieldForm         Field = "form"
	FieldManufacturer Field = "manufacturer"
	FieldIndication   Field = "indication"
	FieldNomenclature Field = "nomenclature"
	FieldPrice        Field = "price"
)

// DescriptiveFields are the optional text columns that receive the missing-value sentinel
var DescriptiveFields = []Field{
	FieldSubstance,
	FieldCode,
	FieldCategory,
	FieldForm,
	FieldManufacturer,
	FieldIndication,
	FieldNomenclature,
}

// ParseField validates a user supplied column name
func ParseField(s string) (Field, error) {
	f := Field(s)
	if f == FieldName || f == FieldPrice {
		return f, nil
	}
	for _, d := range DescriptiveFields {
		if f == d {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: unknown field %q", ErrInvalidRequest, s)
}

// Product is one pharmaceutical product row as stored
type Product struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Substance    string     `json:"substance"`
	Code         string     `json:"code"`
	Category     string     `json:"category"`
	Form         string     `json:"form"`
	Manufacturer string     `json:"manufacturer"`
	Indication   string     `json:"indication"`
	Nomenclature string     `json:"nomenclature"`
	Price        string     `json:"price"`
	Observation  *string    `json:"observation,omitempty"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
}

// Value returns the text value of a canonical field
func (p *Product) Value(f Field) string {
	switch f {
	case FieldName:
		return p.Name
	case FieldSubstance:
		return p.Substance
	case FieldCode:
		return p.Code
	case FieldCategory:
		return p.Category
	case FieldForm:
		return p.Form
	case FieldManufacturer:
		return p.Manufacturer
	case FieldIndication:
		return p.Indication
	case FieldNomenclature:
		return p.Nomenclature
	case FieldPrice:
		return p.Price
	}
	return ""
}

// SetValue overwrites the text value of a canonical field
func (p *Product) SetValue(f Field, v string) {
	switch f {
	case FieldName:
		p.Name = v
	case FieldSubstance:
		p.Substance = v
	case FieldCode:
		p.Code = v
	case FieldCategory:
		p.Category = v
	case FieldForm:
		p.Form = v
	case FieldManufacturer:
		p.Manufacturer = v
	case FieldIndication:
		p.Indication = v
	case FieldNomenclature:
		p.Nomenclature = v
	case FieldPrice:
		p.Price = v
	}
}

// CleanProduct is a normalized product with its parsed price.
// PriceValue is nil when the price text holds no number.
type CleanProduct struct {
	Product
	PriceValue *float64 `json:"priceValue"`
}

// ObservationCategory classifies an observation comment
type ObservationCategory string

const (
	ObservationCommercial ObservationCategory = "Commercial"
	ObservationMedical    ObservationCategory = "Medical"
	ObservationOther      ObservationCategory = "Other"
)

// Valid reports whether the category is one of the known values
func (c ObservationCategory) Valid() bool {
	switch c {
	case ObservationCommercial, ObservationMedical, ObservationOther:
		return true
	}
	return false
}

// Observation is an append-only note about a product.
// ProductID is set only when ProductName matched an existing product at insert time.
type Observation struct {
	ID          int64               `json:"id"`
	ProductName string              `json:"productName"`
	ProductID   *int64              `json:"productId,omitempty"`
	Category    ObservationCategory `json:"category"`
	Comment     string              `json:"comment"`
	CreatedAt   time.Time           `json:"createdAt"`
}

// ObservationInput is a request to append an observation
type ObservationInput struct {
	ProductName string              `json:"productName" binding:"required"`
	Category    ObservationCategory `json:"category" binding:"required"`
	Comment     string              `json:"comment" binding:"required"`
}
