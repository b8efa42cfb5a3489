// internal/store/redis.go
package store

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	apperrors "offer-ledger/internal/common/errors"
	"offer-ledger/internal/models"

	"github.com/redis/go-redis/v9"
)

// Redis keeps applications in the hash <prefix>:applications and users in
// <prefix>:users, both keyed by id with JSON documents as values.
type Redis struct {
	client  redis.UniversalClient
	appsKey string
	userKey string
}

func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	return &Redis{
		client:  client,
		appsKey: prefix + ":applications",
		userKey: prefix + ":users",
	}
}

func (r *Redis) Get(ctx context.Context, id string) (*models.Application, error) {
	raw, err := r.client.HGet(ctx, r.appsKey, id).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, apperrors.NewApplicationNotFoundError(id)
	}
	if err != nil {
		return nil, apperrors.NewStoreUnavailableError("get", err)
	}
	return decodeApplication(raw)
}

func (r *Redis) Put(ctx context.Context, app *models.Application) error {
	doc, err := json.Marshal(app)
	if err != nil {
		return fmt.Errorf("encode application %s: %w", app.ID, err)
	}
	if err := r.client.HSet(ctx, r.appsKey, app.ID, doc).Err(); err != nil {
		return apperrors.NewStoreUnavailableError("put", err)
	}
	return nil
}

// PutMany writes every document in one MULTI/EXEC so a cycle's batch lands together.
func (r *Redis) PutMany(ctx context.Context, apps []*models.Application) error {
	if len(apps) == 0 {
		return nil
	}
	values := make([]interface{}, 0, len(apps)*2)
	for _, app := range apps {
		doc, err := json.Marshal(app)
		if err != nil {
			return fmt.Errorf("encode application %s: %w", app.ID, err)
		}
		values = append(values, app.ID, doc)
	}
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.appsKey, values...)
		return nil
	})
	if err != nil {
		return apperrors.NewStoreUnavailableError("put_many", err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, id string) error {
	n, err := r.client.HDel(ctx, r.appsKey, id).Result()
	if err != nil {
		return apperrors.NewStoreUnavailableError("delete", err)
	}
	if n == 0 {
		return apperrors.NewApplicationNotFoundError(id)
	}
	return nil
}

func (r *Redis) All(ctx context.Context) ([]*models.Application, error) {
	docs, err := r.client.HVals(ctx, r.appsKey).Result()
	if err != nil {
		return nil, apperrors.NewStoreUnavailableError("all", err)
	}
	out := make([]*models.Application, 0, len(docs))
	for _, doc := range docs {
		app, err := decodeApplication([]byte(doc))
		if err != nil {
			return nil, err
		}
		out = append(out, app)
	}
	sortApplications(out)
	return out, nil
}

func (r *Redis) ListByOwner(ctx context.Context, ownerID string) ([]*models.Application, error) {
	all, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	return filterOwner(all, ownerID), nil
}

func (r *Redis) GetUser(ctx context.Context, id string) (*models.User, error) {
	raw, err := r.client.HGet(ctx, r.userKey, id).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, apperrors.NewUserNotFoundError(id)
	}
	if err != nil {
		return nil, apperrors.NewStoreUnavailableError("get_user", err)
	}
	var u models.User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, apperrors.NewStoreUnavailableError("decode_user", err)
	}
	return &u, nil
}

func (r *Redis) PutUser(ctx context.Context, user *models.User) error {
	doc, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user %s: %w", user.ID, err)
	}
	if err := r.client.HSet(ctx, r.userKey, user.ID, doc).Err(); err != nil {
		return apperrors.NewStoreUnavailableError("put_user", err)
	}
	return nil
}

func (r *Redis) ListUsers(ctx context.Context) ([]*models.User, error) {
	docs, err := r.client.HVals(ctx, r.userKey).Result()
	if err != nil {
		return nil, apperrors.NewStoreUnavailableError("list_users", err)
	}
	out := make([]*models.User, 0, len(docs))
	for _, doc := range docs {
		var u models.User
		if err := json.Unmarshal([]byte(doc), &u); err != nil {
			return nil, apperrors.NewStoreUnavailableError("decode_user", err)
		}
		out = append(out, &u)
	}
	sortUsers(out)
	return out, nil
}

func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return apperrors.NewStoreUnavailableError("ping", err)
	}
	return nil
}

// Close is a no-op; the client belongs to the caller.
func (r *Redis) Close() error { return nil }

func decodeApplication(raw []byte) (*models.Application, error) {
	var app models.Application
	if err := json.Unmarshal(raw, &app); err != nil {
		return nil, apperrors.NewStoreUnavailableError("decode", err)
	}
	return &app, nil
}
