package models

// Link is an outbound social or shop link displayed on the portfolio page.
type Link struct {
	BaseModel

	PortfolioID string `gorm:"type:uuid;not null;index" json:"portfolio_id"`
	Title       string `gorm:"not null" json:"title"`
	URL         string `gorm:"not null" json:"url"`
	Position    int    `gorm:"not null;default:0" json:"position"`
}
