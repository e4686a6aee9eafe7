// internal/providers/contextsource/elasticsearch.go
package contextsource

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	apperrors "travel-planner/internal/common/errors"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// Elasticsearch searches a travel-guide index with a city filter.
type Elasticsearch struct {
	client       *elasticsearch.Client
	index        string
	limit        int
	snippetChars int
}

func NewElasticsearch(client *elasticsearch.Client, index string, limit, snippetChars int) *Elasticsearch {
	return &Elasticsearch{client: client, index: index, limit: limit, snippetChars: snippetChars}
}

func buildSearchBody(city, query string) map[string]interface{} {
	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": []interface{}{
					map[string]interface{}{
						"multi_match": map[string]interface{}{
							"query":  query,
							"fields": []string{"title^2", "content"},
						},
					},
				},
				"filter": []interface{}{
					map[string]interface{}{
						"match": map[string]interface{}{"city": city},
					},
				},
			},
		},
		"_source": []string{"title", "city", "content"},
	}
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source Doc `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (e *Elasticsearch) Retrieve(ctx context.Context, city string, preferences []string) (string, error) {
	body, err := json.Marshal(buildSearchBody(city, Query(city, preferences)))
	if err != nil {
		return "", apperrors.NewContextUnavailableError("elasticsearch", err)
	}

	size := e.limit
	req := esapi.SearchRequest{
		Index: []string{e.index},
		Body:  strings.NewReader(string(body)),
		Size:  &size,
	}
	res, err := req.Do(ctx, e.client)
	if err != nil {
		return "", apperrors.NewContextUnavailableError("elasticsearch", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return "", apperrors.NewContextUnavailableError("elasticsearch", fmt.Errorf("search error: %s", res.Status()))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return "", apperrors.NewContextUnavailableError("elasticsearch", err)
	}

	docs := make([]Doc, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		docs = append(docs, h.Source)
	}
	return Render(docs, e.snippetChars), nil
}
