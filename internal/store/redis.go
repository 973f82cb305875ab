package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/kkfinancial/loan-consult/internal/leads"
	"github.com/kkfinancial/loan-consult/pkg/constants"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Redis is a leads.Store shared between instances. Each lead is a JSON string
// under <prefix>:lead:<id>; <prefix>:leads is a sorted set scored by an
// insertion counter. List orders by creation time like the other stores, with
// the counter deciding ties.
type Redis struct {
	client *redis.Client
	prefix string
	opts   options
}

// RedisConfig holds connection settings for OpenRedis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// OpenRedis connects and pings the server.
func OpenRedis(ctx context.Context, cfg RedisConfig, opts ...Option) (*Redis, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.Addr, err)
	}

	return NewRedis(client, cfg.Prefix, opts...), nil
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client, prefix string, opts ...Option) *Redis {
	if prefix == "" {
		prefix = constants.DefaultRedisPrefix
	}
	return &Redis{client: client, prefix: prefix, opts: applyOptions(opts)}
}

func (r *Redis) leadKey(id string) string { return r.prefix + ":lead:" + id }
func (r *Redis) indexKey() string         { return r.prefix + ":leads" }
func (r *Redis) seqKey() string           { return r.prefix + ":leads:seq" }

// Create stores req as a pending lead.
func (r *Redis) Create(ctx context.Context, req leads.ConsultationRequest) (leads.Lead, error) {
	lead := leads.NewLead(req, r.opts.newID(), r.opts.now())

	payload, err := json.Marshal(lead)
	if err != nil {
		return leads.Lead{}, fmt.Errorf("failed to encode lead: %w", err)
	}

	seq, err := r.client.Incr(ctx, r.seqKey()).Result()
	if err != nil {
		return leads.Lead{}, fmt.Errorf("failed to allocate lead sequence: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.leadKey(lead.ID), payload, 0)
		pipe.ZAdd(ctx, r.indexKey(), redis.Z{Score: float64(seq), Member: lead.ID})
		return nil
	})
	if err != nil {
		return leads.Lead{}, fmt.Errorf("failed to store lead: %w", err)
	}

	r.opts.logger.Debug("lead created",
		zap.String("op", "store.Redis.Create"),
		zap.String("id", lead.ID),
		zap.Int64("seq", seq),
	)
	return lead, nil
}

// Get returns the lead with id or leads.ErrNotFound.
func (r *Redis) Get(ctx context.Context, id string) (leads.Lead, error) {
	data, err := r.client.Get(ctx, r.leadKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return leads.Lead{}, leads.ErrNotFound
	}
	if err != nil {
		return leads.Lead{}, fmt.Errorf("failed to load lead %s: %w", id, err)
	}
	return decodeLead(data)
}

// List returns every lead, newest first; equal timestamps keep the later
// insertion first.
func (r *Redis) List(ctx context.Context) ([]leads.Lead, error) {
	ids, err := r.client.ZRevRange(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list lead ids: %w", err)
	}
	out := make([]leads.Lead, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.leadKey(id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load leads: %w", err)
	}

	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			r.opts.logger.Warn("lead indexed but missing",
				zap.String("op", "store.Redis.List"),
				zap.String("id", ids[i]),
			)
			continue
		}
		lead, err := decodeLead([]byte(s))
		if err != nil {
			return nil, err
		}
		out = append(out, lead)
	}

	// ids came back in insertion order, newest first.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// UpdateStatus sets the status of lead id. The read-modify-write runs under
// WATCH so a concurrent update is retried rather than lost.
func (r *Redis) UpdateStatus(ctx context.Context, id string, status leads.Status) (leads.Lead, error) {
	key := r.leadKey(id)
	var updated leads.Lead

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return leads.ErrNotFound
		}
		if err != nil {
			return err
		}
		lead, err := decodeLead(data)
		if err != nil {
			return err
		}
		lead.Status = status
		payload, err := json.Marshal(lead)
		if err != nil {
			return fmt.Errorf("failed to encode lead: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, redis.KeepTTL)
			return nil
		})
		if err == nil {
			updated = lead
		}
		return err
	}

	const maxRetries = 5
	for i := 0; i < maxRetries; i++ {
		err := r.client.Watch(ctx, txf, key)
		if err == nil {
			return updated, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if errors.Is(err, leads.ErrNotFound) {
			return leads.Lead{}, err
		}
		return leads.Lead{}, fmt.Errorf("failed to update lead %s: %w", id, err)
	}
	return leads.Lead{}, fmt.Errorf("failed to update lead %s: too much contention", id)
}

// Close closes the client.
func (r *Redis) Close() error {
	return r.client.Close()
}

func decodeLead(data []byte) (leads.Lead, error) {
	var lead leads.Lead
	if err := json.Unmarshal(data, &lead); err != nil {
		return leads.Lead{}, fmt.Errorf("failed to decode lead: %w", err)
	}
	return lead, nil
}
