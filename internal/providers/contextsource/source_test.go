package contextsource

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "travel-planner/internal/common/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	docs := []Doc{
		{Title: "Trams", Content: "Tram 28 climbs through Alfama."},
		{Title: "Pastries", Content: strings.Repeat("a", 600)},
	}
	out := Render(docs, 500)

	parts := strings.Split(out, "\n\n")
	require.Len(t, parts, 2)
	assert.Equal(t, "[Trams] Tram 28 climbs through Alfama.", parts[0])
	assert.Equal(t, "[Pastries] "+strings.Repeat("a", 500), parts[1])
	assert.Equal(t, "", Render(nil, 500))
}

func TestQuery(t *testing.T) {
	assert.Equal(t, "Lisbon food viewpoints", Query("Lisbon", []string{"food", "viewpoints"}))
}

func TestNoop(t *testing.T) {
	out, err := Noop{}.Retrieve(context.Background(), "Lisbon", nil)
	assert.NoError(t, err)
	assert.Empty(t, out)
}

func newESClient(t *testing.T, handler http.HandlerFunc) *elasticsearch.Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{server.URL}})
	require.NoError(t, err)
	return client
}

func TestElasticsearch_Retrieve(t *testing.T) {
	client := newESClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.URL.Path, "/travel-guides/_search"), r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("size"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		raw, _ := json.Marshal(body)
		assert.Contains(t, string(raw), `"Lisbon food"`)

		_, _ = w.Write([]byte(`{"hits":{"hits":[
			{"_source":{"title":"Time Out Market","city":"Lisbon","content":"Food hall by the river."}},
			{"_source":{"title":"Bairro Alto","city":"Lisbon","content":"Nightlife."}}
		]}}`))
	})

	out, err := NewElasticsearch(client, "travel-guides", 5, 500).Retrieve(context.Background(), "Lisbon", []string{"food"})
	require.NoError(t, err)
	assert.Equal(t, "[Time Out Market] Food hall by the river.\n\n[Bairro Alto] Nightlife.", out)
}

func TestElasticsearch_IndexMissing(t *testing.T) {
	client := newESClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"type":"index_not_found_exception"}}`))
	})

	_, err := NewElasticsearch(client, "travel-guides", 5, 500).Retrieve(context.Background(), "Lisbon", nil)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeContextUnavailable))
}

func TestPostgres_Retrieve(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"title", "city", "content"}).
		AddRow("Miradouros", "Lisbon", "Best viewpoints at sunset.").
		AddRow("Fado", "Lisbon", "Evening music in Alfama.")
	mock.ExpectQuery(`SELECT title, city, content\s+FROM rag_docs`).
		WithArgs("Lisbon", "Lisbon viewpoints", 5).
		WillReturnRows(rows)

	src, err := NewPostgres(db, "rag_docs", 5, 500)
	require.NoError(t, err)

	out, err := src.Retrieve(context.Background(), "Lisbon", []string{"viewpoints"})
	require.NoError(t, err)
	assert.Equal(t, "[Miradouros] Best viewpoints at sunset.\n\n[Fado] Evening music in Alfama.", out)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT title`).WillReturnError(errors.New("relation does not exist"))

	src, err := NewPostgres(db, "rag_docs", 5, 500)
	require.NoError(t, err)

	_, err = src.Retrieve(context.Background(), "Lisbon", nil)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeContextUnavailable))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewPostgres_RejectsBadTable(t *testing.T) {
	_, err := NewPostgres(nil, "docs; DROP TABLE users", 5, 500)
	assert.Error(t, err)
}
