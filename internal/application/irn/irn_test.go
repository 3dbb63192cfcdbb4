package irn

import (
	"context"
	"fmt"
	"testing"
	"time"

	"invoicehub-backend/internal/domain"
	"invoicehub-backend/internal/pkg/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 30, 0, 0, time.UTC)
}

func strPtr(s string) *string { return &s }

// issue allocates and records the next reference, as an invoice insert would.
func issue(t *testing.T, g *Generator, store *MemoryStore, orgID uuid.UUID, on time.Time) string {
	t.Helper()
	ref, err := g.NextOn(context.Background(), orgID, on)
	require.NoError(t, err)
	require.True(t, store.Record(ref))
	return ref
}

func TestNextOn_AcmeScenario(t *testing.T) {
	store := NewMemoryStore()
	org := &domain.Organization{Name: "Acme", Prefix: strPtr("ACME")}
	store.PutOrganization(org)
	g := &Generator{Store: store}

	assert.Equal(t, "ACME-20240301-000001", issue(t, g, store, org.ID, day(2024, time.March, 1)))
	assert.Equal(t, "ACME-20240301-000002", issue(t, g, store, org.ID, day(2024, time.March, 1)))
	assert.Equal(t, "ACME-20240302-000001", issue(t, g, store, org.ID, day(2024, time.March, 2)))
}

func TestNextOn_DefaultPrefix(t *testing.T) {
	store := NewMemoryStore()
	noPrefix := &domain.Organization{Name: "Plain"}
	blank := &domain.Organization{Name: "Blank", Prefix: strPtr("  ")}
	store.PutOrganization(noPrefix)
	store.PutOrganization(blank)
	g := &Generator{Store: store}

	assert.Equal(t, "INV-20240301-000001", issue(t, g, store, noPrefix.ID, day(2024, time.March, 1)))
	assert.Equal(t, "INV-20240301-000002", issue(t, g, store, blank.ID, day(2024, time.March, 1)))
}

func TestNextOn_SequentialIncrement(t *testing.T) {
	store := NewMemoryStore()
	org := &domain.Organization{Prefix: strPtr("SEQ")}
	store.PutOrganization(org)
	g := &Generator{Store: store}

	for i := 1; i <= 25; i++ {
		ref := issue(t, g, store, org.ID, day(2024, time.May, 5))
		assert.Equal(t, fmt.Sprintf("SEQ-20240505-%06d", i), ref)
	}
}

func TestNextOn_IndependentOrganizations(t *testing.T) {
	store := NewMemoryStore()
	a := &domain.Organization{Prefix: strPtr("AAA")}
	b := &domain.Organization{Prefix: strPtr("BBB")}
	store.PutOrganization(a)
	store.PutOrganization(b)
	g := &Generator{Store: store}

	issue(t, g, store, a.ID, day(2024, time.March, 1))
	issue(t, g, store, a.ID, day(2024, time.March, 1))
	assert.Equal(t, "BBB-20240301-000001", issue(t, g, store, b.ID, day(2024, time.March, 1)))
	assert.Equal(t, "AAA-20240301-000003", issue(t, g, store, a.ID, day(2024, time.March, 1)))
}

func TestNextOn_HighestIssuedWins(t *testing.T) {
	store := NewMemoryStore()
	org := &domain.Organization{Prefix: strPtr("ACME")}
	store.PutOrganization(org)
	store.Record("ACME-20240301-000001")
	store.Record("ACME-20240301-000007")
	store.Record("ACME-20240301-000003")
	g := &Generator{Store: store}

	ref, err := g.NextOn(context.Background(), org.ID, day(2024, time.March, 1))
	require.NoError(t, err)
	assert.Equal(t, "ACME-20240301-000008", ref)
}

func TestNextOn_Exhausted(t *testing.T) {
	store := NewMemoryStore()
	org := &domain.Organization{Prefix: strPtr("BIG")}
	store.PutOrganization(org)
	store.Record("BIG-20240301-999999")
	g := &Generator{Store: store}

	_, err := g.NextOn(context.Background(), org.ID, day(2024, time.March, 1))
	assert.ErrorIs(t, err, ErrSequenceExhausted)
	assert.Equal(t, 500, apperr.HTTPStatus(err))

	ref, err := g.NextOn(context.Background(), org.ID, day(2024, time.March, 2))
	require.NoError(t, err)
	assert.Equal(t, "BIG-20240302-000001", ref)
}

func TestNextOn_UnknownOrganization(t *testing.T) {
	g := &Generator{Store: NewMemoryStore()}
	_, err := g.NextOn(context.Background(), uuid.New(), day(2024, time.March, 1))
	assert.ErrorIs(t, err, ErrOrganizationNotFound)
	assert.True(t, apperr.Is(err, apperr.ErrNotFound))
}

func TestNext_UsesClock(t *testing.T) {
	store := NewMemoryStore()
	org := &domain.Organization{Prefix: strPtr("CLK")}
	store.PutOrganization(org)
	g := &Generator{Store: store, Now: func() time.Time { return day(2023, time.December, 31) }}

	ref, err := g.Next(context.Background(), org.ID)
	require.NoError(t, err)
	assert.Equal(t, "CLK-20231231-000001", ref)
}

func TestFormatAndParse(t *testing.T) {
	assert.Equal(t, "X-20240101-000042", Format("X", day(2024, time.January, 1), 42))
	assert.Equal(t, "X-20240101-", Stem("X", day(2024, time.January, 1)))

	n, err := ParseSuffix("ACME-20240301-000123")
	require.NoError(t, err)
	assert.Equal(t, 123, n)

	for _, bad := range []string{"", "ACME", "ACME-20240301-12", "ACME-20240301-00012a", "ACME-20240301-+00001"} {
		_, err := ParseSuffix(bad)
		assert.ErrorIs(t, err, ErrMalformedReference, bad)
	}
}

func TestPrefix(t *testing.T) {
	assert.Equal(t, DefaultPrefix, Prefix(nil))
	assert.Equal(t, DefaultPrefix, Prefix(&domain.Organization{}))
	assert.Equal(t, "ACME", Prefix(&domain.Organization{Prefix: strPtr("ACME")}))
}
