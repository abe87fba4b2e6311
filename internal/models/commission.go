package models

import "gorm.io/datatypes"

// CommissionPrice is a published price tier on a portfolio's commission page.
type CommissionPrice struct {
	BaseModel

	PortfolioID string `gorm:"type:uuid;not null;index" json:"portfolio_id"`
	Title       string `gorm:"not null" json:"title"`
	Description string `json:"description"`
	AmountCents int64  `gorm:"not null" json:"amount_cents"`
	Currency    string `gorm:"type:varchar(8);default:'USD'" json:"currency"`
	Position    int    `gorm:"not null;default:0" json:"position"`
	// Active carries no column default so explicit false survives the INSERT;
	// CreatePrice sets it.
	Active bool `json:"active"`
}

// CommissionStatus tracks a request through the artist's queue.
type CommissionStatus string

const (
	CommissionPending   CommissionStatus = "PENDING"
	CommissionAccepted  CommissionStatus = "ACCEPTED"
	CommissionDeclined  CommissionStatus = "DECLINED"
	CommissionCompleted CommissionStatus = "COMPLETED"
)

// Commission is a client request sitting in an artist's queue. Details carries
// the free-form intake answers (references, usage, deadline) as JSON.
type Commission struct {
	BaseModel

	PortfolioID string           `gorm:"type:uuid;not null;index" json:"portfolio_id"`
	PriceID     *string          `gorm:"type:uuid" json:"price_id,omitempty"`
	ClientName  string           `gorm:"not null" json:"client_name"`
	ClientEmail string           `gorm:"not null" json:"client_email"`
	Message     string           `json:"message"`
	Details     datatypes.JSON   `json:"details,omitempty"`
	Status      CommissionStatus `gorm:"type:varchar(16);not null;default:'PENDING';index" json:"status"`
	Position    int              `gorm:"not null;default:0" json:"position"`

	Price *CommissionPrice `gorm:"foreignKey:PriceID" json:"price,omitempty"`
}
