package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"
)

// ProductDoc is the indexed form of a product.
type ProductDoc struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	CategoryID   uint   `json:"category_id"`
	CategoryName string `json:"category_name"`
	Price        string `json:"price"`
	Quantity     int    `json:"quantity"`
}

type Config struct {
	URL      string
	Username string
	Password string
	Index    string
}

type Index struct {
	es    *elasticsearch.Client
	index string
}

func NewClient(ctx context.Context, cfg Config, log *slog.Logger) (*Index, error) {
	log.Info("es_connect", "url", cfg.URL, "index", cfg.Index)

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("es: new client: %w", err)
	}

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("es: info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("es: info: %s: %s", res.Status(), body)
	}

	return &Index{es: client, index: cfg.Index}, nil
}

// QueryBody builds the fuzzy multi_match request; name hits weigh double.
func QueryBody(query string, from, size int) map[string]any {
	return map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"name^2", "description", "category_name"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}
}

// Search returns the total hit count and the matching product ids in rank order.
func (ix *Index) Search(ctx context.Context, query string, from, size int) (int64, []uint, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(QueryBody(query, from, size)); err != nil {
		return 0, nil, fmt.Errorf("es: encode query: %w", err)
	}

	res, err := ix.es.Search(
		ix.es.Search.WithContext(ctx),
		ix.es.Search.WithIndex(ix.index),
		ix.es.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("es: search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("es: search: %s", res.Status())
	}

	return DecodeHits(res.Body)
}

func DecodeHits(r io.Reader) (int64, []uint, error) {
	var out struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source ProductDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return 0, nil, fmt.Errorf("es: decode: %w", err)
	}

	ids := make([]uint, 0, len(out.Hits.Hits))
	for _, h := range out.Hits.Hits {
		ids = append(ids, h.Source.ID)
	}
	return out.Hits.Total.Value, ids, nil
}

func (ix *Index) Upsert(ctx context.Context, doc ProductDoc) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("es: encode doc: %w", err)
	}

	res, err := ix.es.Index(
		ix.index,
		bytes.NewReader(body),
		ix.es.Index.WithDocumentID(strconv.FormatUint(uint64(doc.ID), 10)),
		ix.es.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("es: index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("es: index: %s", res.Status())
	}
	return nil
}

func (ix *Index) Delete(ctx context.Context, id uint) error {
	res, err := ix.es.Delete(
		ix.index,
		strconv.FormatUint(uint64(id), 10),
		ix.es.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("es: delete: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("es: delete: %s", res.Status())
	}
	return nil
}
