package models

import "time"

// InvitationStatus enumerates the invitation token state machine.
// PENDING may move to ACCEPTED, EXPIRED, or REVOKED; all three are terminal.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "PENDING"
	InvitationAccepted InvitationStatus = "ACCEPTED"
	InvitationExpired  InvitationStatus = "EXPIRED"
	InvitationRevoked  InvitationStatus = "REVOKED"
)

// Invitation is a single-use, time-boxed signup token. Only the SHA-256 hash
// of the bearer token is stored; the raw token leaves the system exactly once,
// inside the invite link.
type Invitation struct {
	BaseModel

	// Email is lowercase-normalised. Empty means a generic invite link not
	// bound to a specific address.
	Email     string           `gorm:"index" json:"email"`
	TokenHash string           `gorm:"uniqueIndex;not null" json:"-"`
	Status    InvitationStatus `gorm:"type:varchar(16);not null;default:'PENDING';index" json:"status"`
	ExpiresAt time.Time        `gorm:"index" json:"expires_at"`
	// InvitedByID is nil for invitations minted without an acting admin, so
	// the users foreign key only applies when an inviter exists.
	InvitedByID   *string    `gorm:"type:uuid" json:"invited_by,omitempty"`
	CustomMessage string     `json:"custom_message,omitempty"`
	AcceptedAt    *time.Time `json:"accepted_at,omitempty"`

	InvitedBy *User `gorm:"foreignKey:InvitedByID" json:"inviter,omitempty"`
}

// IsTerminal reports whether the invitation can never become valid again.
func (i *Invitation) IsTerminal() bool {
	return i.Status != InvitationPending
}
