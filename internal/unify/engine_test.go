package unify

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/listenup-metadata/internal/domain"
	"github.com/listenupapp/listenup-metadata/internal/store/sqlite"
)

func newTestEngine(t *testing.T) (*Engine, *sqlite.Store) {
	t.Helper()
	s, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return New(s, slog.New(slog.DiscardHandler)), s
}

func book(provider, pid, title, author, isbn string) domain.Book {
	b := domain.Book{Provider: provider, ProviderID: pid, Title: title, ISBN: isbn}
	if author != "" {
		b.Authors = []string{author}
	}
	b.Normalize()
	return b
}

func TestMatchKey(t *testing.T) {
	tests := []struct {
		name string
		book domain.Book
		want string
	}{
		{"isbn wins", book("x", "1", "Dune", "Frank Herbert", "978-0-441-01359-3"), "isbn:9780441013593"},
		{"isbn10 with check char", book("x", "1", "Dune", "", "044101359x"), "isbn:044101359X"},
		{"short isbn ignored", book("x", "1", "Dune", "Frank Herbert", "12345"), "dune|frankherbert"},
		{"punctuation and case", book("x", "1", "Dune: Deluxe Edition!", "FRANK HERBERT", ""), "dunedeluxeedition|frankherbert"},
		{"no author", book("x", "1", "Dune", "", ""), "dune|unknown"},
		{"diacritics", book("x", "1", "Les Misérables", "Victor Hugo", ""), "lesmiserables|victorhugo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchKey(&tt.book))
		})
	}
}

func TestPriority(t *testing.T) {
	assert.Equal(t, 10, Priority(domain.ProviderAudible))
	assert.Equal(t, 2, Priority(domain.ProviderGoodreads))
	assert.Equal(t, 1, Priority("Library of Babel"))
}

func TestUnify_MergesByPriority(t *testing.T) {
	e, _ := newTestEngine(t)

	books := []domain.Book{
		book(domain.ProviderGoodreads, "GR-44767458", "Dune", "Frank Herbert", ""),
		book(domain.ProviderITunes, "1477033413", "Dune", "Frank Herbert", ""),
		book(domain.ProviderAudible, "B002V1OF70", "Dune", "Frank Herbert", ""),
		book(domain.ProviderITunes, "999", "Hyperion", "Dan Simmons", ""),
	}

	out, err := e.Unify(t.Context(), books)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, "B002V1OF70", out[0].ProviderID)
	assert.Equal(t, []string{domain.ProviderAudible, domain.ProviderGoodreads, domain.ProviderITunes}, out[0].AvailableProviders)
	assert.Regexp(t, `^ue-`, out[0].UnifiedID)
	assert.Equal(t, "Hyperion", out[1].Title)
}

func TestUnify_Idempotent(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := t.Context()

	books := []domain.Book{
		book(domain.ProviderAudible, "B002V1OF70", "Dune", "Frank Herbert", ""),
		book(domain.ProviderITunes, "1477033413", "Dune", "Frank Herbert", ""),
	}

	first, err := e.Unify(ctx, books)
	require.NoError(t, err)
	second, err := e.Unify(ctx, books)
	require.NoError(t, err)

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].UnifiedID, second[0].UnifiedID)

	n, err := s.CountEntities(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	ent, err := s.GetEntity(ctx, first[0].UnifiedID)
	require.NoError(t, err)
	assert.Len(t, ent.Relations, 2)
	assert.Equal(t, "Dune", ent.Title)
}

func TestUnify_ISBNOverridesTitle(t *testing.T) {
	e, _ := newTestEngine(t)

	books := []domain.Book{
		book(domain.ProviderPRH, "9780593099322", "Dune (Movie Tie-In)", "Frank Herbert", "9780593099322"),
		book(domain.ProviderGoogleBooks, "9780593099322", "DUNE", "Herbert, Frank", "978-0593099322"),
		book(domain.ProviderAudible, "B002V1OF70", "Dune", "Frank Herbert", ""),
	}

	out, err := e.Unify(t.Context(), books)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, domain.ProviderPRH, out[0].Provider)
	assert.Equal(t, []string{domain.ProviderGoogleBooks, domain.ProviderPRH}, out[0].AvailableProviders)
	assert.Equal(t, []string{domain.ProviderAudible}, out[1].AvailableProviders)
}

func TestUnify_KnownGroupsFirstAndExtended(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := t.Context()

	seed, err := e.Unify(ctx, []domain.Book{book(domain.ProviderAudible, "B002V1OF70", "Dune", "Frank Herbert", "")})
	require.NoError(t, err)
	require.Len(t, seed, 1)

	out, err := e.Unify(ctx, []domain.Book{
		book(domain.ProviderITunes, "999", "Hyperion", "Dan Simmons", ""),
		book(domain.ProviderGoodreads, "GR-44767458", "Dune", "Frank Herbert", ""),
		book(domain.ProviderAudible, "B002V1OF70", "Dune", "Frank Herbert", ""),
	})
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, seed[0].UnifiedID, out[0].UnifiedID)
	assert.Equal(t, []string{domain.ProviderAudible, domain.ProviderGoodreads}, out[0].AvailableProviders)
	assert.Equal(t, "Hyperion", out[1].Title)

	ent, err := s.GetEntity(ctx, seed[0].UnifiedID)
	require.NoError(t, err)
	assert.Equal(t, []domain.Relation{
		{Provider: domain.ProviderAudible, ProviderID: "B002V1OF70"},
		{Provider: domain.ProviderGoodreads, ProviderID: "GR-44767458"},
	}, ent.Relations)
}

func TestUnify_Empty(t *testing.T) {
	e, _ := newTestEngine(t)

	out, err := e.Unify(t.Context(), nil)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.NotNil(t, out)
}
