package models

import "time"

// CacheEntry backs the database cache store used for rate limiting when Redis
// is not configured.
type CacheEntry struct {
	Key       string    `gorm:"primaryKey" json:"key"`
	Value     []byte    `json:"-"`
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
