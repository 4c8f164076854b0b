package entitystore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/anyproto/any-sync/app"

	"github.com/andrade-gabriel/ahocultural/domain"
	"github.com/andrade-gabriel/ahocultural/objectstore"
)

const CName = "entitystore"

// ErrNotFound is returned by Get when no entity exists under the id. It
// is distinct from transport failures: callers can rely on errors.Is.
var ErrNotFound = objectstore.ErrNotFound

func New() Store {
	return &entityStore{now: time.Now}
}

// Store reads and writes one JSON document per entity id. Writes are
// last-write-wins unless the caller carries an ETag precondition from a
// previous GetWithETag.
type Store interface {
	app.Component

	Get(ctx context.Context, kind domain.Kind, id string) ([]byte, error)
	GetWithETag(ctx context.Context, kind domain.Kind, id string) ([]byte, string, error)
	Put(ctx context.Context, kind domain.Kind, e domain.Entity) error
	PutIfMatch(ctx context.Context, kind domain.Kind, e domain.Entity, etag string) error
}

type entityStore struct {
	objects objectstore.Store
	now     func() time.Time
}

func (s *entityStore) Init(a *app.App) (err error) {
	s.objects = a.MustComponent(objectstore.CName).(objectstore.Store)
	return
}

func (s *entityStore) Name() string {
	return CName
}

// keyFor derives the object key: "{prefix}/{urlEncode(lower(trim(id)))}.json".
func keyFor(kind domain.Kind, id string) string {
	return kind.Prefix() + url.PathEscape(strings.ToLower(strings.TrimSpace(id))) + ".json"
}

func (s *entityStore) Get(ctx context.Context, kind domain.Kind, id string) ([]byte, error) {
	data, _, err := s.GetWithETag(ctx, kind, id)
	return data, err
}

func (s *entityStore) GetWithETag(ctx context.Context, kind domain.Kind, id string) ([]byte, string, error) {
	body, etag, err := s.objects.GetWithETag(ctx, keyFor(kind, id))
	if err != nil {
		return nil, "", err
	}
	defer func() {
		_ = body.Close()
	}()
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, "", err
	}
	return data, etag, nil
}

func (s *entityStore) Put(ctx context.Context, kind domain.Kind, e domain.Entity) error {
	data, err := s.marshal(kind, e)
	if err != nil {
		return err
	}
	return s.objects.Put(ctx, keyFor(kind, e.EntityID()), bytes.NewReader(data))
}

func (s *entityStore) PutIfMatch(ctx context.Context, kind domain.Kind, e domain.Entity, etag string) error {
	data, err := s.marshal(kind, e)
	if err != nil {
		return err
	}
	return s.objects.PutIfMatch(ctx, keyFor(kind, e.EntityID()), bytes.NewReader(data), etag)
}

// marshal stamps the audit fields and serializes the full entity.
// created_at is seeded only when empty so a carried-over value survives
// repeated writes; updated_at is set on every write.
func (s *entityStore) marshal(kind domain.Kind, e domain.Entity) ([]byte, error) {
	if e.EntityID() == "" {
		return nil, fmt.Errorf("%s entity id is empty", kind)
	}
	meta := e.Audit()
	now := s.now()
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = now
	}
	meta.UpdatedAt = now
	return json.Marshal(e)
}

// GetAs fetches and unmarshals an entity into T. ErrNotFound passes
// through untouched.
func GetAs[T any](ctx context.Context, s Store, kind domain.Kind, id string) (*T, error) {
	data, err := s.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	var out T
	if err = json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode %s %q: %w", kind, id, err)
	}
	return &out, nil
}
