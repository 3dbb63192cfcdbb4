package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// LineItem is a single billed line on an invoice.
type LineItem struct {
	Description string          `json:"description" validate:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// Amount is quantity times unit price, rounded to cents.
func (l LineItem) Amount() decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice).Round(2)
}

// Invoice belongs to an organization. ReferenceNumber is assigned once at
// creation and never rewritten.
type Invoice struct {
	ID                 uuid.UUID                     `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrganizationID     uuid.UUID                     `gorm:"column:organization_id;type:uuid;not null;index" json:"organization"`
	ReferenceNumber    string                        `gorm:"column:reference_number;type:varchar(50);not null;uniqueIndex" json:"reference_number"`
	Title              string                        `gorm:"column:title;type:varchar(255);not null" json:"title"`
	IssueDate          time.Time                     `gorm:"column:issue_date;type:date;not null" json:"date"`
	DueDate            time.Time                     `gorm:"column:due_date;type:date;not null;index" json:"due_date"`
	Client             datatypes.JSONMap             `gorm:"column:client" json:"client_details"`
	Items              datatypes.JSONSlice[LineItem] `gorm:"column:items" json:"items_details"`
	PaymentInfo        datatypes.JSONMap             `gorm:"column:payment_info" json:"payment_info_details"`
	Tax                decimal.Decimal               `gorm:"column:tax;type:decimal(10,2);not null" json:"tax"`
	Discount           decimal.Decimal               `gorm:"column:discount;type:decimal(10,2);not null" json:"discount"`
	TermsAndConditions string                        `gorm:"column:terms_and_conditions" json:"terms_and_conditions"`
	Note               string                        `gorm:"column:note" json:"note"`
	CreatedBy          *uuid.UUID                    `gorm:"column:created_by;type:uuid;index" json:"created_by"`
	UpdatedBy          *uuid.UUID                    `gorm:"column:updated_by;type:uuid" json:"updated_by"`
	Subtotal           decimal.Decimal               `gorm:"-" json:"subtotal"`
	Total              decimal.Decimal               `gorm:"-" json:"total"`
	CreatedAt          time.Time                     `json:"created_at"`
	UpdatedAt          time.Time                     `json:"updated_at"`
	DeletedAt          gorm.DeletedAt                `gorm:"index" json:"-"`
}

func (Invoice) TableName() string {
	return "invoices"
}

func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// AfterFind fills the computed totals.
func (i *Invoice) AfterFind(tx *gorm.DB) error {
	i.ComputeTotals()
	return nil
}

// ComputeTotals sets Subtotal to the sum of line amounts and Total to
// Subtotal minus Discount plus Tax.
func (i *Invoice) ComputeTotals() {
	i.Subtotal = Subtotal(i.Items)
	i.Total = i.Subtotal.Sub(i.Discount).Add(i.Tax)
}

// Subtotal sums the line amounts.
func Subtotal(items []LineItem) decimal.Decimal {
	sub := decimal.Zero
	for _, it := range items {
		sub = sub.Add(it.Amount())
	}
	return sub
}
