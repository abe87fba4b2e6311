package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/atelierlabs/atelier/internal/models"
	"github.com/atelierlabs/atelier/pkg/crypto"
	"github.com/atelierlabs/atelier/pkg/mail"
)

const (
	defaultInvitationTTL        = 7 * 24 * time.Hour
	defaultInvitationTokenBytes = 32
)

var (
	// ErrInvitationNotFound indicates no invitation matches the provided token or id.
	ErrInvitationNotFound = errors.New("invitation: not found")
	// ErrInvitationExpired indicates the invitation's TTL has lapsed.
	ErrInvitationExpired = errors.New("invitation: expired")
	// ErrInvitationAlreadyUsed signals that the invitation has already been accepted.
	ErrInvitationAlreadyUsed = errors.New("invitation: already accepted")
	// ErrInvitationRevoked signals that an admin cancelled the invitation.
	ErrInvitationRevoked = errors.New("invitation: revoked")
)

// InvitationOption customises InvitationService behaviour.
type InvitationOption func(*InvitationService)

// WithInvitationBaseURL configures the base URL used to build invite links.
func WithInvitationBaseURL(url string) InvitationOption {
	return func(s *InvitationService) {
		s.baseURL = strings.TrimRight(url, "/")
	}
}

// WithInvitationTTL overrides the invitation lifetime.
func WithInvitationTTL(d time.Duration) InvitationOption {
	return func(s *InvitationService) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// WithInvitationTokenSize adjusts the random token length in bytes.
func WithInvitationTokenSize(size int) InvitationOption {
	return func(s *InvitationService) {
		if size > 0 {
			s.tokenBytes = size
		}
	}
}

// WithInvitationClock injects a custom clock primarily for testing.
func WithInvitationClock(clock func() time.Time) InvitationOption {
	return func(s *InvitationService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// InvitationService manages the single-use signup token ledger.
type InvitationService struct {
	db         *gorm.DB
	mailer     mail.Mailer
	baseURL    string
	ttl        time.Duration
	tokenBytes int
	now        func() time.Time
}

// NewInvitationService constructs an InvitationService with the provided dependencies.
func NewInvitationService(db *gorm.DB, mailer mail.Mailer, opts ...InvitationOption) (*InvitationService, error) {
	if db == nil {
		return nil, errors.New("invitation service: db is required")
	}

	service := &InvitationService{
		db:         db,
		mailer:     mailer,
		ttl:        defaultInvitationTTL,
		tokenBytes: defaultInvitationTokenBytes,
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(service)
	}

	return service, nil
}

// CreateInvitationInput describes the fields accepted when inviting an artist.
type CreateInvitationInput struct {
	// Email may be empty for a generic invite link not bound to an address.
	Email         string
	InvitedByID   string
	CustomMessage string
}

// Create issues a new invitation. When a PENDING, unexpired invitation already
// exists for the same email the existing record is returned with an empty
// token instead of minting a second one; admins use Resend to rotate the link.
func (s *InvitationService) Create(ctx context.Context, input CreateInvitationInput) (invite *models.Invitation, token, link string, err error) {
	ctx = ensureContext(ctx)
	email := normaliseEmail(input.Email)
	now := s.now()

	if email != "" {
		var existing models.Invitation
		err := s.db.WithContext(ctx).
			Where("email = ? AND status = ? AND expires_at > ?", email, models.InvitationPending, now).
			First(&existing).Error
		if err == nil {
			return &existing, "", "", nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", "", fmt.Errorf("invitation service: find pending: %w", err)
		}
	}

	rawToken, err := crypto.GenerateToken(s.tokenBytes)
	if err != nil {
		return nil, "", "", fmt.Errorf("invitation service: generate token: %w", err)
	}

	record := models.Invitation{
		Email:         email,
		TokenHash:     tokenHash(rawToken),
		Status:        models.InvitationPending,
		ExpiresAt:     now.Add(s.ttl),
		InvitedByID:   inviterRef(input.InvitedByID),
		CustomMessage: strings.TrimSpace(input.CustomMessage),
	}

	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, "", "", fmt.Errorf("invitation service: create: %w", err)
	}

	link = s.InviteLink(rawToken)
	s.dispatchEmail(ctx, &record, link)

	return &record, rawToken, link, nil
}

// Validate looks up an invitation by raw token. A PENDING record past its
// expiry is flipped to EXPIRED as a side effect of detection; the flip is a
// conditional update so a concurrent consume cannot be overwritten.
func (s *InvitationService) Validate(ctx context.Context, token string) (*models.Invitation, error) {
	ctx = ensureContext(ctx)

	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvitationNotFound
	}

	var record models.Invitation
	err := s.db.WithContext(ctx).
		Preload("InvitedBy").
		Where("token_hash = ?", tokenHash(token)).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvitationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("invitation service: find by token: %w", err)
	}

	switch record.Status {
	case models.InvitationAccepted:
		return nil, ErrInvitationAlreadyUsed
	case models.InvitationRevoked:
		return nil, ErrInvitationRevoked
	case models.InvitationExpired:
		return nil, ErrInvitationExpired
	}

	if record.ExpiresAt.Before(s.now()) {
		res := s.db.WithContext(ctx).
			Model(&models.Invitation{}).
			Where("id = ? AND status = ?", record.ID, models.InvitationPending).
			Update("status", models.InvitationExpired)
		if res.Error != nil {
			return nil, fmt.Errorf("invitation service: mark expired: %w", res.Error)
		}
		return nil, ErrInvitationExpired
	}

	return &record, nil
}

// Consume atomically marks a PENDING, unexpired invitation as ACCEPTED.
// The conditional update's affected-row count is the single-consumption guard:
// of two concurrent consumers exactly one observes RowsAffected == 1.
func (s *InvitationService) Consume(ctx context.Context, token string) (*models.Invitation, error) {
	ctx = ensureContext(ctx)

	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvitationNotFound
	}

	now := s.now()
	res := s.db.WithContext(ctx).
		Model(&models.Invitation{}).
		Where("token_hash = ? AND status = ? AND expires_at > ?", tokenHash(token), models.InvitationPending, now).
		Updates(map[string]any{
			"status":      models.InvitationAccepted,
			"accepted_at": now,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("invitation service: consume: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		// Lost the race or never valid; re-validate to classify the failure.
		if _, err := s.Validate(ctx, token); err != nil {
			return nil, err
		}
		return nil, ErrInvitationNotFound
	}

	var record models.Invitation
	if err := s.db.WithContext(ctx).
		Where("token_hash = ?", tokenHash(token)).
		First(&record).Error; err != nil {
		return nil, fmt.Errorf("invitation service: reload: %w", err)
	}
	return &record, nil
}

// PendingInvitation augments a PENDING record with display-only computed fields.
type PendingInvitation struct {
	models.Invitation
	IsExpired     bool `json:"is_expired"`
	DaysRemaining int  `json:"days_remaining"`
}

// ListPending returns PENDING invitations with computed expiry fields for the
// admin view. Unlike Validate it never mutates state.
func (s *InvitationService) ListPending(ctx context.Context) ([]PendingInvitation, error) {
	ctx = ensureContext(ctx)

	var records []models.Invitation
	err := s.db.WithContext(ctx).
		Preload("InvitedBy").
		Where("status = ?", models.InvitationPending).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("invitation service: list pending: %w", err)
	}

	now := s.now()
	out := make([]PendingInvitation, 0, len(records))
	for i := range records {
		remaining := int(records[i].ExpiresAt.Sub(now).Hours() / 24)
		if remaining < 0 {
			remaining = 0
		}
		out = append(out, PendingInvitation{
			Invitation:    records[i],
			IsExpired:     records[i].ExpiresAt.Before(now),
			DaysRemaining: remaining,
		})
	}
	return out, nil
}

// List returns invitations filtered by status ("" means all).
func (s *InvitationService) List(ctx context.Context, status string) ([]models.Invitation, error) {
	ctx = ensureContext(ctx)

	query := s.db.WithContext(ctx).Preload("InvitedBy").Order("created_at DESC")
	if status = strings.ToUpper(strings.TrimSpace(status)); status != "" {
		query = query.Where("status = ?", status)
	}

	var records []models.Invitation
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("invitation service: list: %w", err)
	}
	return records, nil
}

// Revoke moves a PENDING invitation into the terminal REVOKED state.
func (s *InvitationService) Revoke(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	record, err := s.getByID(ctx, id)
	if err != nil {
		return err
	}
	if record.Status == models.InvitationAccepted {
		return ErrInvitationAlreadyUsed
	}

	res := s.db.WithContext(ctx).
		Model(&models.Invitation{}).
		Where("id = ? AND status = ?", record.ID, models.InvitationPending).
		Update("status", models.InvitationRevoked)
	if res.Error != nil {
		return fmt.Errorf("invitation service: revoke: %w", res.Error)
	}
	return nil
}

// Delete removes an invitation entirely (the admin "cancel" action). Accepted
// invitations stay as historical records and cannot be deleted.
func (s *InvitationService) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	record, err := s.getByID(ctx, id)
	if err != nil {
		return err
	}
	if record.Status == models.InvitationAccepted {
		return ErrInvitationAlreadyUsed
	}

	if err := s.db.WithContext(ctx).Delete(&models.Invitation{}, "id = ?", record.ID).Error; err != nil {
		return fmt.Errorf("invitation service: delete: %w", err)
	}
	return nil
}

// Resend revokes the old PENDING invitation and issues a fresh one with a new
// token and full TTL, keeping at most one active invitation per email.
func (s *InvitationService) Resend(ctx context.Context, id string) (*models.Invitation, string, string, error) {
	ctx = ensureContext(ctx)

	record, err := s.getByID(ctx, id)
	if err != nil {
		return nil, "", "", err
	}
	if record.Status == models.InvitationAccepted {
		return nil, "", "", ErrInvitationAlreadyUsed
	}

	res := s.db.WithContext(ctx).
		Model(&models.Invitation{}).
		Where("id = ? AND status = ?", record.ID, models.InvitationPending).
		Update("status", models.InvitationRevoked)
	if res.Error != nil {
		return nil, "", "", fmt.Errorf("invitation service: revoke before resend: %w", res.Error)
	}

	rawToken, err := crypto.GenerateToken(s.tokenBytes)
	if err != nil {
		return nil, "", "", fmt.Errorf("invitation service: generate token: %w", err)
	}

	fresh := models.Invitation{
		Email:         record.Email,
		TokenHash:     tokenHash(rawToken),
		Status:        models.InvitationPending,
		ExpiresAt:     s.now().Add(s.ttl),
		InvitedByID:   record.InvitedByID,
		CustomMessage: record.CustomMessage,
	}
	if err := s.db.WithContext(ctx).Create(&fresh).Error; err != nil {
		return nil, "", "", fmt.Errorf("invitation service: create resend: %w", err)
	}

	link := s.InviteLink(rawToken)
	s.dispatchEmail(ctx, &fresh, link)

	return &fresh, rawToken, link, nil
}

// SweepExpired flips every PENDING invitation past its expiry to EXPIRED.
// The maintenance cleaner calls this on a schedule; Validate performs the same
// transition lazily for individual tokens.
func (s *InvitationService) SweepExpired(ctx context.Context) (int64, error) {
	ctx = ensureContext(ctx)

	res := s.db.WithContext(ctx).
		Model(&models.Invitation{}).
		Where("status = ? AND expires_at < ?", models.InvitationPending, s.now()).
		Update("status", models.InvitationExpired)
	if res.Error != nil {
		return 0, fmt.Errorf("invitation service: sweep expired: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// PruneTerminal deletes EXPIRED and REVOKED records older than the retention window.
func (s *InvitationService) PruneTerminal(ctx context.Context, olderThan time.Duration) (int64, error) {
	ctx = ensureContext(ctx)

	cutoff := s.now().Add(-olderThan)
	res := s.db.WithContext(ctx).
		Where("status IN ? AND created_at < ?", []models.InvitationStatus{models.InvitationExpired, models.InvitationRevoked}, cutoff).
		Delete(&models.Invitation{})
	if res.Error != nil {
		return 0, fmt.Errorf("invitation service: prune: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// InviteLink renders the signup URL carrying the raw bearer token.
func (s *InvitationService) InviteLink(token string) string {
	if s.baseURL == "" {
		return token
	}
	return fmt.Sprintf("%s/signup?token=%s", s.baseURL, token)
}

func (s *InvitationService) getByID(ctx context.Context, id string) (*models.Invitation, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrInvitationNotFound
	}

	var record models.Invitation
	err := s.db.WithContext(ctx).First(&record, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvitationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("invitation service: get: %w", err)
	}
	return &record, nil
}

func (s *InvitationService) dispatchEmail(ctx context.Context, record *models.Invitation, link string) {
	if s.mailer == nil || record.Email == "" {
		return
	}

	body := fmt.Sprintf("Hello,\n\nYou have been invited to open an artist portfolio on Atelier. Use the following link to set up your account:\n%s\n\nThe link expires on %s.\n", link, record.ExpiresAt.Format(time.RFC1123))
	if record.CustomMessage != "" {
		body = fmt.Sprintf("%s\nA note from your inviter:\n%s\n", body, record.CustomMessage)
	}

	message := mail.Message{
		To:      []string{record.Email},
		Subject: "You're invited to Atelier",
		Body:    body,
	}
	// Delivery failures are non-fatal; the admin still receives the link.
	_ = s.mailer.Send(ctx, message)
}

// inviterRef maps a blank inviter id to nil so the invitation row stores NULL
// instead of an empty string that would break the users foreign key.
func inviterRef(id string) *string {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	return &id
}

func tokenHash(token string) string {
	checksum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(checksum[:])
}
