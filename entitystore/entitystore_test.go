package entitystore

import (
	"bytes"
	"context"
	"io"
	"strconv"
	"testing"
	"time"

	"github.com/anyproto/any-sync/app"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrade-gabriel/ahocultural/domain"
	"github.com/andrade-gabriel/ahocultural/objectstore"
)

var ctx = context.Background()

func TestStore_PutGet(t *testing.T) {
	fx := newFixture(t)
	cat := &domain.Category{Id: "arte", Name: domain.Text{Pt: "Arte"}, Meta: domain.Meta{Active: true}}
	require.NoError(t, fx.Put(ctx, domain.KindCategory, cat))

	got, err := GetAs[domain.Category](ctx, fx.Store, domain.KindCategory, "arte")
	require.NoError(t, err)
	assert.Equal(t, "arte", got.Id)
	assert.Equal(t, "Arte", got.Name.Pt)
	assert.True(t, got.Active)
	assert.False(t, got.CreatedAt.IsZero())
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestStore_KeyDerivation(t *testing.T) {
	assert.Equal(t, "categories/arte%20moderna.json", keyFor(domain.KindCategory, " Arte Moderna "))
	assert.Equal(t, "institutional/about.json", keyFor(domain.KindAbout, domain.AboutId))
	assert.Equal(t, "events/sarau.json", keyFor(domain.KindEvent, "SARAU"))
}

func TestStore_NotFound(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.Get(ctx, domain.KindArticle, "nonexistent")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStore_AuditFields(t *testing.T) {
	fx := newFixture(t)
	t1 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	fx.Store.(*entityStore).now = func() time.Time { return t1 }
	loc := &domain.Location{Id: "teatro-sao-pedro", Name: domain.Text{Pt: "Teatro São Pedro"}}
	require.NoError(t, fx.Put(ctx, domain.KindLocation, loc))

	got, err := GetAs[domain.Location](ctx, fx.Store, domain.KindLocation, "teatro-sao-pedro")
	require.NoError(t, err)
	assert.Equal(t, t1, got.CreatedAt)
	assert.Equal(t, t1, got.UpdatedAt)

	// second write carries the created_at seed and must preserve it
	fx.Store.(*entityStore).now = func() time.Time { return t2 }
	got.City = "São Paulo"
	require.NoError(t, fx.Put(ctx, domain.KindLocation, got))

	got, err = GetAs[domain.Location](ctx, fx.Store, domain.KindLocation, "teatro-sao-pedro")
	require.NoError(t, err)
	assert.Equal(t, t1, got.CreatedAt)
	assert.Equal(t, t2, got.UpdatedAt)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))
}

func TestStore_PutIfMatch(t *testing.T) {
	fx := newFixture(t)
	com := &domain.Company{Id: "sesc", Name: domain.Text{Pt: "Sesc"}}
	require.NoError(t, fx.Put(ctx, domain.KindCompany, com))

	_, etag, err := fx.GetWithETag(ctx, domain.KindCompany, "sesc")
	require.NoError(t, err)

	// a concurrent writer moves the object forward
	require.NoError(t, fx.Put(ctx, domain.KindCompany, com))

	err = fx.PutIfMatch(ctx, domain.KindCompany, com, etag)
	require.ErrorIs(t, err, objectstore.ErrPreconditionFailed)

	_, etag, err = fx.GetWithETag(ctx, domain.KindCompany, "sesc")
	require.NoError(t, err)
	require.NoError(t, fx.PutIfMatch(ctx, domain.KindCompany, com, etag))
}

func TestStore_EmptyId(t *testing.T) {
	fx := newFixture(t)
	err := fx.Put(ctx, domain.KindCategory, &domain.Category{})
	require.Error(t, err)
}

type fixture struct {
	Store
	objects *fakeObjects
	a       *app.App
}

func newFixture(t *testing.T) *fixture {
	fx := &fixture{
		Store:   New(),
		objects: newFakeObjects(),
		a:       new(app.App),
	}
	fx.a.Register(fx.objects).Register(fx.Store)
	require.NoError(t, fx.a.Start(ctx))
	t.Cleanup(func() {
		require.NoError(t, fx.a.Close(ctx))
	})
	return fx
}

type fakeObjects struct {
	data     map[string][]byte
	versions map[string]int
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{data: map[string][]byte{}, versions: map[string]int{}}
}

func (f *fakeObjects) Init(a *app.App) (err error) { return }
func (f *fakeObjects) Name() string                { return objectstore.CName }

func (f *fakeObjects) Put(ctx context.Context, key string, reader io.Reader) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	f.data[key] = data
	f.versions[key]++
	return nil
}

func (f *fakeObjects) PutIfMatch(ctx context.Context, key string, reader io.Reader, etag string) error {
	if f.etag(key) != etag {
		return objectstore.ErrPreconditionFailed
	}
	return f.Put(ctx, key, reader)
}

func (f *fakeObjects) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	body, _, err := f.GetWithETag(ctx, key)
	return body, err
}

func (f *fakeObjects) GetWithETag(ctx context.Context, key string) (io.ReadCloser, string, error) {
	data, ok := f.data[key]
	if !ok {
		return nil, "", objectstore.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), f.etag(key), nil
}

func (f *fakeObjects) etag(key string) string {
	return strconv.Itoa(f.versions[key])
}
