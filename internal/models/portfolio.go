package models

// Portfolio is the public face of an artist. Slugs are globally unique and
// enforced by the database index; application-level checks are advisory only.
type Portfolio struct {
	BaseModel

	Slug        string `gorm:"uniqueIndex;not null" json:"slug"`
	DisplayName string `json:"display_name"`
	UserID      string `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`

	AccentColor  string `json:"accent_color"`
	ColorMode    string `gorm:"default:'light'" json:"color_mode"`
	LogoURL      string `json:"logo_url"`
	HeroImageURL string `json:"hero_image_url"`

	// Commission page customisation, denormalised onto the portfolio.
	PrimaryColor   string `json:"primary_color"`
	SecondaryColor string `json:"secondary_color"`
	FooterText     string `json:"footer_text"`

	Galleries        []Gallery         `gorm:"foreignKey:PortfolioID;constraint:OnDelete:CASCADE" json:"galleries,omitempty"`
	CommissionPrices []CommissionPrice `gorm:"foreignKey:PortfolioID;constraint:OnDelete:CASCADE" json:"commission_prices,omitempty"`
	Links            []Link            `gorm:"foreignKey:PortfolioID;constraint:OnDelete:CASCADE" json:"links,omitempty"`
	Commissions      []Commission      `gorm:"foreignKey:PortfolioID;constraint:OnDelete:CASCADE" json:"-"`
}
