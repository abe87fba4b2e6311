package services

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/atelierlabs/atelier/pkg/metrics"

	apperrors "github.com/atelierlabs/atelier/pkg/errors"
)

const (
	// DefaultSlugBase is used when a seed yields nothing usable.
	DefaultSlugBase = "artist"

	minSlugLength        = 3
	maxAllocationRetries = 50
)

// ErrSlugTaken reports a user-chosen slug that is reserved or already in use.
var ErrSlugTaken = apperrors.New("SLUG_TAKEN", "This slug is already taken", http.StatusConflict)

// reservedSlugs are forbidden because they collide with system routes.
var reservedSlugs = map[string]struct{}{
	"admin":     {},
	"api":       {},
	"app":       {},
	"assets":    {},
	"auth":      {},
	"dashboard": {},
	"health":    {},
	"invite":    {},
	"login":     {},
	"logout":    {},
	"metrics":   {},
	"portfolio": {},
	"public":    {},
	"settings":  {},
	"signup":    {},
	"static":    {},
	"studio":    {},
	"uploads":   {},
	"www":       {},
}

var (
	slugInvalidRuns = regexp.MustCompile(`[^a-z0-9]+`)
	slugPattern     = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
)

// IsReservedSlug reports whether the value collides with a system route.
func IsReservedSlug(slug string) bool {
	_, reserved := reservedSlugs[slug]
	return reserved
}

// ValidateSlug checks a user-chosen slug against format, length, and the
// reserved-word set. Uniqueness is not checked here; the database index and
// isUniqueConstraintError decide that at write time.
func ValidateSlug(slug string) error {
	if len(slug) < minSlugLength {
		return apperrors.NewBadRequest(fmt.Sprintf("slug must be at least %d characters", minSlugLength))
	}
	if !slugPattern.MatchString(slug) {
		return apperrors.NewBadRequest("slug may only contain lowercase letters, digits, and hyphens")
	}
	if IsReservedSlug(slug) {
		return ErrSlugTaken
	}
	return nil
}

// DeriveSlugBase turns an email address or desired name into a slug candidate.
// Email seeds keep only the local part. Runs of characters outside [a-z0-9]
// collapse into single hyphens; anything too short falls back to "artist".
func DeriveSlugBase(seed string) string {
	seed = strings.ToLower(strings.TrimSpace(seed))
	if at := strings.Index(seed, "@"); at >= 0 {
		seed = seed[:at]
	}

	seed = slugInvalidRuns.ReplaceAllString(seed, "-")
	seed = strings.Trim(seed, "-")

	if len(seed) < minSlugLength {
		return DefaultSlugBase
	}
	return seed
}

// ExistsFunc reports whether a slug is already taken.
type ExistsFunc func(ctx context.Context, slug string) (bool, error)

// AllocateSlug finds the first candidate derived from base that is neither
// reserved nor taken, suffixing -1, -2, ... as needed. The existence check is
// advisory; concurrent allocators can still collide and must go through
// AllocateSlugWithRetry for the authoritative write.
func AllocateSlug(ctx context.Context, base string, exists ExistsFunc) (string, error) {
	ctx = ensureContext(ctx)

	candidate := base
	for suffix := 1; ; suffix++ {
		if !IsReservedSlug(candidate) {
			taken, err := exists(ctx, candidate)
			if err != nil {
				return "", fmt.Errorf("slug: existence check: %w", err)
			}
			if !taken {
				return candidate, nil
			}
		}
		candidate = fmt.Sprintf("%s-%d", base, suffix)
	}
}

// CreateFunc attempts the authoritative write for a candidate slug. It returns
// the database error unmodified so unique violations can be detected.
type CreateFunc func(ctx context.Context, slug string) error

// AllocateSlugWithRetry drives optimistic slug allocation: pick a candidate,
// attempt the write, and on a unique-constraint violation advance the counter
// and try again. The losing writer of a race lands here with the next suffix.
func AllocateSlugWithRetry(ctx context.Context, base string, exists ExistsFunc, create CreateFunc) (string, error) {
	ctx = ensureContext(ctx)

	suffix := 0
	candidate := base
	for attempt := 0; attempt < maxAllocationRetries; attempt++ {
		allocated, err := AllocateSlug(ctx, candidate, exists)
		if err != nil {
			return "", err
		}

		err = create(ctx, allocated)
		if err == nil {
			return allocated, nil
		}
		if !isUniqueConstraintError(err) {
			return "", err
		}

		metrics.SlugAllocationRetries.Inc()
		suffix++
		candidate = fmt.Sprintf("%s-%d", base, suffix)
	}

	return "", fmt.Errorf("slug: allocation failed after %d attempts for base %q", maxAllocationRetries, base)
}
