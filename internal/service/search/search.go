package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Pattarach/checkup_shop/internal/models"
)

func Search(ctx context.Context, es *elasticsearch.Client, index, query string, from, size int) (int64, []models.Package, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"title^2", "hospital_name", "description"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("search: encode query: %w", err)
	}

	res, err := es.Search(
		es.Search.WithContext(ctx),
		es.Search.WithIndex(index),
		es.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: request failed: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("search: error response: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct{ Value int64 }             `json:"total"`
			Hits  []struct{ Source models.Package } `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, err
	}

	pkgs := make([]models.Package, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		pkgs[i] = hit.Source
	}
	return r.Hits.Total.Value, pkgs, nil
}

// IndexPackage upserts the package document so approved packages become
// searchable again after a bulk transition.
func IndexPackage(ctx context.Context, es *elasticsearch.Client, index string, p models.Package) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("search: encode package: %w", err)
	}
	res, err := es.Index(index, bytes.NewReader(body),
		es.Index.WithDocumentID(strconv.FormatUint(uint64(p.ID), 10)),
		es.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("search: index request failed: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("search: index error: %s", res.Status())
	}
	return nil
}

// RemovePackage deletes the document; a missing document is fine, archived
// packages may never have been indexed.
func RemovePackage(ctx context.Context, es *elasticsearch.Client, index string, id uint) error {
	res, err := es.Delete(index, strconv.FormatUint(uint64(id), 10),
		es.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("search: delete request failed: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("search: delete error: %s", res.Status())
	}
	return nil
}
