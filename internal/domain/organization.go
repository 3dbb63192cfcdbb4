package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	BusinessFreelancing    = "freelancing"
	BusinessNGO            = "ngo"
	BusinessProfitBusiness = "profit_business"
)

// Organization is a tenant. Prefix namespaces the invoice reference numbers it
// issues; nil means the default prefix applies.
type Organization struct {
	ID                 uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name               string         `gorm:"column:name;not null" json:"name"`
	Prefix             *string        `gorm:"column:invoice_reference_prefix;type:varchar(10);uniqueIndex" json:"invoice_reference_prefix"`
	Address            *string        `gorm:"column:address" json:"address"`
	Email              *string        `gorm:"column:email" json:"email"`
	PhoneNumber        *string        `gorm:"column:phone_number;type:varchar(30)" json:"phone_number"`
	Website            *string        `gorm:"column:website" json:"website"`
	DefaultTemplateID  int            `gorm:"column:default_template_id;not null;default:1" json:"default_template_id"`
	ThemeColor         string         `gorm:"column:theme_color;type:varchar(20);not null;default:'blue'" json:"theme_color"`
	BaseCurrency       string         `gorm:"column:base_currency;type:varchar(10);not null;default:'USD'" json:"base_currency"`
	TimeZone           string         `gorm:"column:time_zone;type:varchar(50);not null;default:'UTC'" json:"time_zone"`
	BusinessType       string         `gorm:"column:business_type;type:varchar(50);not null;default:'profit_business'" json:"business_type"`
	DateFormat         string         `gorm:"column:date_format;type:varchar(20);not null;default:'YYYY-MM-DD'" json:"date_format"`
	TermsAndConditions string         `gorm:"column:terms_and_conditions" json:"terms_and_conditions"`
	Note               string         `gorm:"column:note" json:"note"`
	InvoiceExpiryDays  int            `gorm:"column:invoice_expiry_days;not null;default:30" json:"invoice_expiry_days"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Organization) TableName() string {
	return "organizations"
}

// BeforeCreate ensures id is set for DBs without default uuid.
func (o *Organization) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// OrganizationMember links a user to an organization with a role.
type OrganizationMember struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_member_user_org" json:"user_id"`
	OrganizationID uuid.UUID `gorm:"column:organization_id;type:uuid;not null;uniqueIndex:idx_member_user_org;index" json:"organization"`
	Role           string    `gorm:"column:role;type:varchar(10);not null;default:'member'" json:"role"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (OrganizationMember) TableName() string {
	return "organization_members"
}

func (m *OrganizationMember) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
