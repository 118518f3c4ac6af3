package application

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type esCall struct {
	Method string
	Path   string
	Body   string
}

// fakeES answers like a single-node cluster where the index does not exist yet.
func fakeES(t *testing.T) (*elasticsearch.Client, *[]esCall) {
	t.Helper()
	var mu sync.Mutex
	calls := []esCall{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		calls = append(calls, esCall{Method: r.Method, Path: r.URL.Path, Body: string(b)})
		mu.Unlock()

		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodHead:
			w.WriteHeader(http.StatusNotFound)
		case r.URL.Path == "/histories/_search":
			_, _ = io.WriteString(w, `{"hits":{"hits":[{"_id":"INV01032025-001","_source":{"invoice_number":"INV01032025-001","transaction_type":"PAYMENT","description":"Pulsa","total_amount":10000,"user_id":"u-1","created_on":"2025-03-01T08:00:00Z"}}]}}`)
		default:
			_, _ = io.WriteString(w, `{"acknowledged":true,"result":"created"}`)
		}
	}))
	t.Cleanup(srv.Close)

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return es, &calls
}

func TestHistoryIndexerEnsureIndexAndIndex(t *testing.T) {
	es, calls := fakeES(t)
	ix := NewHistoryIndexer(es, "histories", nil)
	ctx := context.Background()

	require.NoError(t, ix.EnsureIndex(ctx))
	require.NoError(t, ix.IndexEntry(ctx, HistoryDocument{
		InvoiceNumber:   "INV01032025-001",
		TransactionType: "PAYMENT",
		Description:     "Pulsa",
		TotalAmount:     decimal.NewFromInt(10000),
		UserID:          "u-1",
		CreatedOn:       time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC),
	}))

	require.Len(t, *calls, 3)
	assert.Equal(t, http.MethodHead, (*calls)[0].Method)
	assert.Equal(t, http.MethodPut, (*calls)[1].Method)
	assert.Equal(t, "/histories", (*calls)[1].Path)
	assert.Contains(t, (*calls)[1].Body, `"scaled_float"`)
	assert.Equal(t, "/histories/_doc/INV01032025-001", (*calls)[2].Path)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte((*calls)[2].Body), &doc))
	assert.Equal(t, "u-1", doc["user_id"])
}

func TestHistoryIndexerSearch(t *testing.T) {
	es, calls := fakeES(t)
	ix := NewHistoryIndexer(es, "histories", nil)

	docs, err := ix.Search(context.Background(), "u-1", "pulsa", 10)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Pulsa", docs[0].Description)
	assert.True(t, docs[0].TotalAmount.Equal(decimal.NewFromInt(10000)))

	require.Len(t, *calls, 1)
	body := (*calls)[0].Body
	assert.Contains(t, body, `"user_id":"u-1"`)
	assert.Contains(t, body, `"multi_match"`)
}

func TestHistoryIndexerDisabled(t *testing.T) {
	var ix *HistoryIndexer
	assert.NoError(t, ix.EnsureIndex(context.Background()))
	assert.NoError(t, ix.IndexEntry(context.Background(), HistoryDocument{}))
	docs, err := ix.Search(context.Background(), "u", "", 10)
	require.NoError(t, err)
	assert.Empty(t, docs)
}
