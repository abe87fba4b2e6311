package models

// CommissionsGalleryName is the reserved hidden gallery that holds commission
// reference artwork; it is created alongside the portfolio and never listed
// publicly.
const CommissionsGalleryName = "commissions"

// Gallery groups artwork within a portfolio with position-based ordering.
type Gallery struct {
	BaseModel

	PortfolioID string `gorm:"type:uuid;not null;index" json:"portfolio_id"`
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`
	Position    int    `gorm:"not null;default:0" json:"position"`
	Hidden      bool   `gorm:"default:false" json:"hidden"`

	Items []GalleryItem `gorm:"foreignKey:GalleryID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// GalleryItem is a single artwork entry.
type GalleryItem struct {
	BaseModel

	GalleryID    string `gorm:"type:uuid;not null;index" json:"gallery_id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	ImageURL     string `gorm:"not null" json:"image_url"`
	ThumbnailURL string `json:"thumbnail_url"`
	Position     int    `gorm:"not null;default:0" json:"position"`
	// Public has no column default: a default on a bool column would make gorm
	// drop explicit false values from the INSERT. Creation paths set it.
	Public bool `json:"public"`
}
