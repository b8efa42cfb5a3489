// Package audit keeps a searchable trail of application status transitions.
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	apperrors "offer-ledger/internal/common/errors"
	"offer-ledger/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
)

// Entry is one recorded transition.
type Entry struct {
	ApplicationID string         `json:"applicationId"`
	OwnerID       string         `json:"ownerId"`
	From          models.Status  `json:"from"`
	To            models.Status  `json:"to"`
	Trigger       models.Trigger `json:"trigger"`
	LedgerRow     int            `json:"ledgerRow,omitempty"`
	Price         string         `json:"price,omitempty"`
	Actor         string         `json:"actor,omitempty"`
	At            time.Time      `json:"at"`
}

// Recorder stores transitions. Implementations must be safe for concurrent use.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
	History(ctx context.Context, applicationID string) ([]Entry, error)
}

// Nop discards entries.
type Nop struct{}

func (Nop) Record(context.Context, Entry) error { return nil }

func (Nop) History(context.Context, string) ([]Entry, error) { return nil, nil }

// Elasticsearch indexes one document per transition.
type Elasticsearch struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticsearch(client *elasticsearch.Client, index string) *Elasticsearch {
	return &Elasticsearch{client: client, index: index}
}

func (r *Elasticsearch) Record(ctx context.Context, e Entry) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}
	res, err := r.client.Index(
		r.index,
		bytes.NewReader(body),
		r.client.Index.WithContext(ctx),
	)
	if err != nil {
		return apperrors.NewExternalServiceError("elasticsearch", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return apperrors.NewExternalServiceError("elasticsearch", fmt.Errorf("index %s: %s", r.index, readError(res.Body, res.Status())))
	}
	return nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source Entry `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// History returns the transitions of one application, oldest first.
func (r *Elasticsearch) History(ctx context.Context, applicationID string) ([]Entry, error) {
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"term": map[string]interface{}{"applicationId.keyword": applicationID},
		},
		"sort": []interface{}{map[string]interface{}{"at": map[string]string{"order": "asc"}}},
		"size": 100,
	}
	body, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}

	res, err := r.client.Search(
		r.client.Search.WithContext(ctx),
		r.client.Search.WithIndex(r.index),
		r.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, apperrors.NewExternalServiceError("elasticsearch", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, apperrors.NewExternalServiceError("elasticsearch", fmt.Errorf("search %s: %s", r.index, readError(res.Body, res.Status())))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	out := make([]Entry, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}

func readError(body io.Reader, status string) string {
	b, _ := io.ReadAll(io.LimitReader(body, 512))
	if msg := strings.TrimSpace(string(b)); msg != "" {
		return status + " " + msg
	}
	return status
}
