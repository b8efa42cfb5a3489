// internal/audit/audit_test.go
package audit

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apperrors "offer-ledger/internal/common/errors"
	"offer-ledger/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupES(t *testing.T, handler http.HandlerFunc) *Elasticsearch {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return NewElasticsearch(client, "offer-transitions")
}

func TestElasticsearch_Record(t *testing.T) {
	var gotPath string
	var got Entry
	r := setupES(t, func(w http.ResponseWriter, req *http.Request) {
		gotPath = req.URL.Path
		_ = json.NewDecoder(req.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"_index":"offer-transitions","_id":"1","result":"created"}`))
	})

	at := time.Date(2024, 7, 3, 9, 0, 0, 0, time.UTC)
	err := r.Record(context.Background(), Entry{
		ApplicationID: "app-1",
		From:          models.StatusAgreed,
		To:            models.StatusConfirmed,
		Trigger:       models.TriggerAccept,
		LedgerRow:     5,
		At:            at,
	})

	require.NoError(t, err)
	assert.Equal(t, "/offer-transitions/_doc", gotPath)
	assert.Equal(t, "app-1", got.ApplicationID)
	assert.Equal(t, models.StatusConfirmed, got.To)
	assert.Equal(t, 5, got.LedgerRow)
	assert.True(t, at.Equal(got.At))
}

func TestElasticsearch_RecordError(t *testing.T) {
	r := setupES(t, func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"mapper_parsing_exception"}`))
	})

	err := r.Record(context.Background(), Entry{ApplicationID: "app-1"})

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeExternalService, apperrors.CodeOf(err))
	assert.Contains(t, err.Error(), "mapper_parsing_exception")
}

func TestElasticsearch_History(t *testing.T) {
	var query string
	r := setupES(t, func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "/offer-transitions/_search", req.URL.Path)
		b, _ := io.ReadAll(req.Body)
		query = string(b)
		_, _ = w.Write([]byte(`{"hits":{"hits":[
			{"_source":{"applicationId":"app-1","from":"active","to":"agreed","trigger":"manager_price","price":"120"}},
			{"_source":{"applicationId":"app-1","from":"agreed","to":"rejected","trigger":"decline"}}
		]}}`))
	})

	entries, err := r.History(context.Background(), "app-1")

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "120", entries[0].Price)
	assert.Equal(t, models.StatusRejected, entries[1].To)
	assert.True(t, strings.Contains(query, `"applicationId.keyword":"app-1"`))
}

func TestNop(t *testing.T) {
	var r Recorder = Nop{}
	assert.NoError(t, r.Record(context.Background(), Entry{}))
	entries, err := r.History(context.Background(), "x")
	assert.NoError(t, err)
	assert.Nil(t, entries)
	assert.False(t, stderrors.Is(err, apperrors.ErrStoreUnavailable))
}
