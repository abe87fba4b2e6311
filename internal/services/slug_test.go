package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestDeriveSlugBase(t *testing.T) {
	cases := []struct {
		name string
		seed string
		want string
	}{
		{"email keeps local part", "TestName@Example.COM", "testname"},
		{"dots collapse to hyphens", "jane.doe@studio.art", "jane-doe"},
		{"plus tag included", "jane+commissions@studio.art", "jane-commissions"},
		{"plain name", "Jane Doe", "jane-doe"},
		{"leading and trailing junk trimmed", "--jane--", "jane"},
		{"too short falls back", "jd@studio.art", "artist"},
		{"empty falls back", "", "artist"},
		{"unicode stripped", "žana@studio.art", "ana"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, DeriveSlugBase(tc.seed))
		})
	}
}

func TestValidateSlug(t *testing.T) {
	require.NoError(t, ValidateSlug("jane-doe"))
	require.NoError(t, ValidateSlug("abc"))
	require.NoError(t, ValidateSlug("a1-b2-c3"))

	require.Error(t, ValidateSlug("ab"))
	require.Error(t, ValidateSlug("Jane"))
	require.Error(t, ValidateSlug("jane_doe"))
	require.Error(t, ValidateSlug("-jane"))
	require.Error(t, ValidateSlug("jane-"))
	require.Error(t, ValidateSlug("jane--doe"))

	err := ValidateSlug("admin")
	require.ErrorIs(t, err, ErrSlugTaken)
}

func TestAllocateSlugSuffixing(t *testing.T) {
	taken := map[string]bool{"jane": true, "jane-1": true}
	exists := func(ctx context.Context, slug string) (bool, error) {
		return taken[slug], nil
	}

	slug, err := AllocateSlug(context.Background(), "jane", exists)
	require.NoError(t, err)
	require.Equal(t, "jane-2", slug)
}

func TestAllocateSlugSkipsReserved(t *testing.T) {
	exists := func(ctx context.Context, slug string) (bool, error) {
		return false, nil
	}

	slug, err := AllocateSlug(context.Background(), "admin", exists)
	require.NoError(t, err)
	require.Equal(t, "admin-1", slug)
}

func TestAllocateSlugWithRetry(t *testing.T) {
	// The existence check says everything is free, but the first two writes
	// lose the race. The allocator must advance the suffix each time.
	exists := func(ctx context.Context, slug string) (bool, error) {
		return false, nil
	}

	var attempts []string
	create := func(ctx context.Context, slug string) error {
		attempts = append(attempts, slug)
		if len(attempts) < 3 {
			return gorm.ErrDuplicatedKey
		}
		return nil
	}

	slug, err := AllocateSlugWithRetry(context.Background(), "jane", exists, create)
	require.NoError(t, err)
	require.Equal(t, "jane-2", slug)
	require.Equal(t, []string{"jane", "jane-1", "jane-2"}, attempts)
}

func TestAllocateSlugWithRetryPropagatesOtherErrors(t *testing.T) {
	exists := func(ctx context.Context, slug string) (bool, error) {
		return false, nil
	}
	create := func(ctx context.Context, slug string) error {
		return fmt.Errorf("connection lost")
	}

	_, err := AllocateSlugWithRetry(context.Background(), "jane", exists, create)
	require.Error(t, err)
	require.Contains(t, err.Error(), "connection lost")
}
