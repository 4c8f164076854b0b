package resolver

import (
	"context"
	"encoding/json"
	"time"

	"github.com/anyproto/any-sync/app"
	"github.com/anyproto/any-sync/app/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/andrade-gabriel/ahocultural/domain"
	"github.com/andrade-gabriel/ahocultural/entitystore"
)

const CName = "resolver"

var log = logger.NewNamed(CName)

func New() Resolver {
	return &resolver{}
}

// Resolver resolves weak references (bare id fields) back into full
// entities at index time. Lookups go through a redis cache-aside layer
// when a cache is configured; the canonical store stays the source of
// truth and cache failures only cost an extra read.
type Resolver interface {
	app.ComponentRunnable

	Company(ctx context.Context, id string) (*domain.Company, error)
	Location(ctx context.Context, id string) (*domain.Location, error)
	Category(ctx context.Context, id string) (*domain.Category, error)
}

type resolver struct {
	conf  Config
	store entitystore.Store
	cache *redis.Client
	ttl   time.Duration
}

func (r *resolver) Init(a *app.App) (err error) {
	r.conf = a.MustComponent("config").(configSource).GetResolver()
	r.store = a.MustComponent(entitystore.CName).(entitystore.Store)
	r.ttl = time.Duration(r.conf.CacheTTLSecs) * time.Second
	if r.ttl <= 0 {
		r.ttl = 5 * time.Minute
	}
	if r.conf.Redis.Addr != "" {
		r.cache = redis.NewClient(&redis.Options{
			Addr:     r.conf.Redis.Addr,
			Password: r.conf.Redis.Password,
			DB:       r.conf.Redis.DB,
		})
	}
	return
}

func (r *resolver) Name() string {
	return CName
}

func (r *resolver) Run(ctx context.Context) (err error) {
	if r.cache != nil {
		if err = r.cache.Ping(ctx).Err(); err != nil {
			return
		}
	}
	return
}

func (r *resolver) Company(ctx context.Context, id string) (*domain.Company, error) {
	return resolve[domain.Company](ctx, r, domain.KindCompany, id)
}

func (r *resolver) Location(ctx context.Context, id string) (*domain.Location, error) {
	return resolve[domain.Location](ctx, r, domain.KindLocation, id)
}

func (r *resolver) Category(ctx context.Context, id string) (*domain.Category, error) {
	return resolve[domain.Category](ctx, r, domain.KindCategory, id)
}

func cacheKey(kind domain.Kind, id string) string {
	return "resolver:" + string(kind) + ":" + id
}

func resolve[T any](ctx context.Context, r *resolver, kind domain.Kind, id string) (*T, error) {
	if r.cache != nil {
		data, err := r.cache.Get(ctx, cacheKey(kind, id)).Bytes()
		if err == nil {
			var out T
			if err = json.Unmarshal(data, &out); err == nil {
				return &out, nil
			}
		} else if err != redis.Nil {
			log.Debug("cache read failed", zap.String("kind", string(kind)), zap.String("id", id), zap.Error(err))
		}
	}

	out, err := entitystore.GetAs[T](ctx, r.store, kind, id)
	if err != nil {
		return nil, err
	}
	if r.cache != nil {
		if data, err := json.Marshal(out); err == nil {
			if err = r.cache.Set(ctx, cacheKey(kind, id), data, r.ttl).Err(); err != nil {
				log.Debug("cache write failed", zap.String("kind", string(kind)), zap.String("id", id), zap.Error(err))
			}
		}
	}
	return out, nil
}

func (r *resolver) Close(ctx context.Context) (err error) {
	if r.cache != nil {
		return r.cache.Close()
	}
	return
}
