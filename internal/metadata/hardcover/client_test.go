package hardcover

import (
	"encoding/json/v2"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/listenup-metadata/internal/domain"
	"github.com/listenupapp/listenup-metadata/internal/metadata"
)

func loadFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

func newTestClient(t *testing.T, key string, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := slog.New(slog.DiscardHandler)
	req := metadata.NewRequester("", logger)
	req.HTTP = server.Client()
	return NewClient(req, server.URL, key, logger)
}

func decodeRequest(t *testing.T, r *http.Request) gqlRequest {
	t.Helper()
	body, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	var req gqlRequest
	require.NoError(t, json.Unmarshal(body, &req))
	return req
}

// graphQLHandler serves books for every books query, and editions only for
// book 427900.
func graphQLHandler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token123", r.Header.Get("Authorization"))
		req := decodeRequest(t, r)
		if strings.Contains(req.Query, "BookEditions") {
			if req.Variables["bookId"] == float64(427900) {
				w.Write(loadFixture(t, "editions.json"))
				return
			}
			w.Write([]byte(`{"data":{"editions":[]}}`))
			return
		}
		w.Write(loadFixture(t, "books.json"))
	}
}

func TestBearer(t *testing.T) {
	assert.Equal(t, "abc", bearer("abc"))
	assert.Equal(t, "abc", bearer("Bearer abc"))
	assert.Equal(t, "abc", bearer("  bearer   abc "))
	assert.Empty(t, bearer(""))
}

func TestClient_Search_KeepsAudiobooksOnly(t *testing.T) {
	client := newTestClient(t, "Bearer token123", graphQLHandler(t))

	res, err := client.Search(t.Context(), metadata.Criteria{Query: "Project Hail Mary"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.RawCount)
	require.Len(t, res.Items, 1)

	b := res.Items[0]
	assert.Equal(t, "hc:project-hail-mary", b.ProviderID)
	assert.Equal(t, "Hardcover", b.Provider)
	assert.Equal(t, "Project Hail Mary", b.Title)
	assert.Equal(t, []string{"Andy Weir"}, b.Authors)
	assert.Equal(t, []string{"Ray Porter"}, b.Narrators)
	assert.Equal(t, "9780593395561", b.ISBN)
	assert.Equal(t, "Audible Studios", b.Publisher)
	assert.Equal(t, 971, *b.RuntimeMinutes)
	assert.Equal(t, "https://assets.hardcover.app/editions/phm.jpg", b.CoverImage)
	assert.Equal(t, 18000, *b.RatingCount)
	require.NotNil(t, b.Rating)
	assert.InDelta(t, 4.52, *b.Rating, 0.001)
}

func TestClient_Search_Variables(t *testing.T) {
	var seen []gqlRequest
	client := newTestClient(t, "token123", func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, decodeRequest(t, r))
		w.Write([]byte(`{"data":{"books":[]}}`))
	})

	_, err := client.Search(t.Context(), metadata.Criteria{Query: " Project Hail Mary ", Limit: 3})
	require.NoError(t, err)
	require.Len(t, seen, 1)
	assert.Contains(t, seen[0].Query, "SearchBooks")
	assert.Equal(t, "Project Hail Mary", seen[0].Variables["title"])
	assert.Equal(t, "project-hail-mary", seen[0].Variables["slug"])
	assert.Equal(t, float64(3), seen[0].Variables["limit"])

	_, err = client.Search(t.Context(), metadata.Criteria{Query: "ignored", ISBN: "9780593395561"})
	require.NoError(t, err)
	require.Len(t, seen, 2)
	assert.Contains(t, seen[1].Query, "BooksByISBN")
	assert.Equal(t, "9780593395561", seen[1].Variables["isbn"])
}

func TestClient_Search_GraphQLError(t *testing.T) {
	client := newTestClient(t, "token123", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"errors":[{"message":"field 'books' not found"}]}`))
	})

	_, err := client.Search(t.Context(), metadata.Criteria{Query: "x"})
	assert.ErrorIs(t, err, ErrGraphQL)
}

func TestClient_Search_MissingKey(t *testing.T) {
	client := newTestClient(t, "", func(w http.ResponseWriter, _ *http.Request) {
		t.Error("no request expected")
	})

	_, err := client.Search(t.Context(), metadata.Criteria{Query: "x"})
	assert.ErrorIs(t, err, metadata.ErrMissingKey)

	_, err = client.Search(t.Context(), metadata.Criteria{Query: "x", Keys: domain.APIKeys{Hardcover: "Bearer "}})
	assert.ErrorIs(t, err, metadata.ErrMissingKey)
}

func TestClient_FetchDetails(t *testing.T) {
	client := newTestClient(t, "", graphQLHandler(t))
	ctx := metadata.WithKeys(t.Context(), domain.APIKeys{Hardcover: "token123"})

	book, err := client.FetchDetails(ctx, "hc:project-hail-mary")
	require.NoError(t, err)
	assert.Equal(t, "hc:project-hail-mary", book.ProviderID)
	assert.Equal(t, []string{"Ray Porter"}, book.Narrators)

	_, err = client.FetchDetails(ctx, "hc:")
	assert.ErrorIs(t, err, metadata.ErrInvalidID)
}
