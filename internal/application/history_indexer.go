package application

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const esTimeout = 3 * time.Second

// HistoryDocument is the search-side copy of a committed ledger entry.
type HistoryDocument struct {
	InvoiceNumber   string          `json:"invoice_number"`
	TransactionType string          `json:"transaction_type"`
	Description     string          `json:"description"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	UserID          string          `json:"user_id"`
	ServiceCode     string          `json:"service_code,omitempty"`
	CreatedOn       time.Time       `json:"created_on"`
}

// HistoryIndexer keeps ledger entries in an Elasticsearch index. A nil client
// turns every call into a no-op.
type HistoryIndexer struct {
	ES     *elasticsearch.Client
	Index  string
	Logger *logrus.Logger
}

func NewHistoryIndexer(es *elasticsearch.Client, index string, logger *logrus.Logger) *HistoryIndexer {
	return &HistoryIndexer{ES: es, Index: index, Logger: logger}
}

func (ix *HistoryIndexer) enabled() bool {
	return ix != nil && ix.ES != nil && ix.Index != ""
}

var historyMapping = map[string]any{
	"mappings": map[string]any{
		"properties": map[string]any{
			"invoice_number":   map[string]any{"type": "keyword"},
			"transaction_type": map[string]any{"type": "keyword"},
			"description":      map[string]any{"type": "text"},
			"total_amount":     map[string]any{"type": "scaled_float", "scaling_factor": 100},
			"user_id":          map[string]any{"type": "keyword"},
			"service_code":     map[string]any{"type": "keyword"},
			"created_on":       map[string]any{"type": "date"},
		},
	},
}

// EnsureIndex creates the index with its mapping when it does not exist yet.
func (ix *HistoryIndexer) EnsureIndex(ctx context.Context) error {
	if !ix.enabled() {
		return nil
	}
	c, cancel := context.WithTimeout(ctx, esTimeout)
	defer cancel()

	res, err := esapi.IndicesExistsRequest{Index: []string{ix.Index}}.Do(c, ix.ES)
	if err != nil {
		return err
	}
	_ = res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	b, _ := json.Marshal(historyMapping)
	res, err = esapi.IndicesCreateRequest{Index: ix.Index, Body: bytes.NewReader(b)}.Do(c, ix.ES)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("create index %s: %s", ix.Index, res.Status())
	}
	return nil
}

func (ix *HistoryIndexer) IndexEntry(ctx context.Context, doc HistoryDocument) error {
	if !ix.enabled() {
		return nil
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{Index: ix.Index, DocumentID: doc.InvoiceNumber, Body: bytes.NewReader(b), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, esTimeout)
	defer cancel()
	res, err := req.Do(c, ix.ES)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("index %s: %s", doc.InvoiceNumber, res.Status())
	}
	return nil
}

// Search matches q against invoice number and description within one user's
// entries, newest first. An empty q lists the latest entries.
func (ix *HistoryIndexer) Search(ctx context.Context, userID, q string, size int) ([]HistoryDocument, error) {
	if !ix.enabled() {
		return []HistoryDocument{}, nil
	}
	must := []any{map[string]any{"match_all": map[string]any{}}}
	if q != "" {
		must = []any{map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"invoice_number^2", "description"},
			},
		}}
	}
	query := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"filter": []any{map[string]any{"term": map[string]any{"user_id": userID}}},
				"must":   must,
			},
		},
		"sort": []any{map[string]any{"created_on": map[string]any{"order": "desc"}}},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, esTimeout)
	defer cancel()

	res, err := ix.ES.Search(ix.ES.Search.WithContext(c), ix.ES.Search.WithIndex(ix.Index), ix.ES.Search.WithBody(bytes.NewReader(b)))
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = res.Body.Close()
	}()
	if res.IsError() {
		return nil, fmt.Errorf("search %s: %s", ix.Index, res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source HistoryDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]HistoryDocument, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
