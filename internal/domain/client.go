package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Client is a customer of an organization.
type Client struct {
	ID             uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID      `gorm:"column:organization_id;type:uuid;not null;index" json:"organization_id"`
	Name           string         `gorm:"column:name;not null" json:"name"`
	Address        string         `gorm:"column:address;not null" json:"address"`
	Email          string         `gorm:"column:email;not null" json:"email"`
	PhoneNumber    string         `gorm:"column:phone_number;type:varchar(30);not null" json:"phone_number"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Client) TableName() string {
	return "clients"
}

func (c *Client) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
