package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/anyproto/any-sync/app"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrade-gabriel/ahocultural/domain"
	"github.com/andrade-gabriel/ahocultural/entitystore"
	"github.com/andrade-gabriel/ahocultural/outbox"
	"github.com/andrade-gabriel/ahocultural/searchindex"
)

func TestApi_CreateCategory(t *testing.T) {
	fx := newFixture(t)
	resp := fx.do(t, http.MethodPost, "/admin/categories",
		`{"slug":"arte","name":{"pt":"Arte","en":"Art"},"active":true}`)

	require.Equal(t, http.StatusOK, resp.status)
	assert.True(t, resp.envelope.Success)
	assert.Empty(t, resp.envelope.Errors)

	stored, err := entitystore.GetAs[domain.Category](ctx, fx.store, domain.KindCategory, "arte")
	require.NoError(t, err)
	assert.Equal(t, "Arte", stored.Name.Pt)
	assert.Equal(t, []domain.Change{{ID: "arte", Kind: domain.KindCategory}}, fx.outbox.enqueued)
}

func TestApi_CreateValidationError(t *testing.T) {
	fx := newFixture(t)
	resp := fx.do(t, http.MethodPost, "/admin/categories", `{"slug":"arte"}`)

	require.Equal(t, http.StatusBadRequest, resp.status)
	assert.False(t, resp.envelope.Success)
	assert.Contains(t, resp.envelope.Errors, "name is required")
	assert.Empty(t, fx.outbox.enqueued)

	// a present but empty name object is just as invalid
	resp = fx.do(t, http.MethodPost, "/admin/categories", `{"slug":"arte","name":{}}`)
	require.Equal(t, http.StatusBadRequest, resp.status)
	assert.Contains(t, resp.envelope.Errors, "name is required")

	_, err := fx.store.Get(ctx, domain.KindCategory, "arte")
	require.ErrorIs(t, err, entitystore.ErrNotFound)
}

func TestApi_CreateBadJson(t *testing.T) {
	fx := newFixture(t)
	resp := fx.do(t, http.MethodPost, "/admin/categories", `{not json`)

	require.Equal(t, http.StatusBadRequest, resp.status)
	assert.Contains(t, resp.envelope.Errors, "request body is not valid json")
}

func TestApi_CreateGeneratesId(t *testing.T) {
	fx := newFixture(t)
	resp := fx.do(t, http.MethodPost, "/admin/companies", `{"name":{"pt":"Sesc"}}`)

	require.Equal(t, http.StatusOK, resp.status)
	require.Len(t, fx.outbox.enqueued, 1)
	id := fx.outbox.enqueued[0].ID
	assert.NotEmpty(t, id)
	_, err := fx.store.Get(ctx, domain.KindCompany, id)
	require.NoError(t, err)
}

func TestApi_UpdatePreservesCreatedAt(t *testing.T) {
	fx := newFixture(t)
	seeded := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	fx.store.add(t, domain.KindLocation, &domain.Location{
		Id:   "teatro",
		Name: domain.Text{Pt: "Teatro"},
		Meta: domain.Meta{CreatedAt: seeded},
	})

	resp := fx.do(t, http.MethodPut, "/admin/locations/teatro",
		`{"name":{"pt":"Teatro São Pedro"},"city":"São Paulo","active":true}`)

	require.Equal(t, http.StatusOK, resp.status)
	stored, err := entitystore.GetAs[domain.Location](ctx, fx.store, domain.KindLocation, "teatro")
	require.NoError(t, err)
	assert.Equal(t, "Teatro São Pedro", stored.Name.Pt)
	assert.Equal(t, seeded, stored.CreatedAt)
}

func TestApi_CreateReusedSlugKeepsCreatedAt(t *testing.T) {
	fx := newFixture(t)
	seeded := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	fx.store.add(t, domain.KindCategory, &domain.Category{
		Id:   "arte",
		Name: domain.Text{Pt: "Arte"},
		Meta: domain.Meta{CreatedAt: seeded},
	})

	resp := fx.do(t, http.MethodPost, "/admin/categories",
		`{"slug":"arte","name":{"pt":"Arte e Cultura"},"active":true}`)
	require.Equal(t, http.StatusOK, resp.status)

	stored, err := entitystore.GetAs[domain.Category](ctx, fx.store, domain.KindCategory, "arte")
	require.NoError(t, err)
	assert.Equal(t, "Arte e Cultura", stored.Name.Pt)
	assert.Equal(t, seeded, stored.CreatedAt)
}

func TestApi_AdminGet(t *testing.T) {
	fx := newFixture(t)
	fx.store.add(t, domain.KindCategory, &domain.Category{Id: "arte", Name: domain.Text{Pt: "Arte"}})

	resp := fx.do(t, http.MethodGet, "/admin/categories/arte", "")
	require.Equal(t, http.StatusOK, resp.status)
	assert.True(t, resp.envelope.Success)
	assert.NotNil(t, resp.envelope.Data)
}

func TestApi_AdminGetMissingIsNullData(t *testing.T) {
	fx := newFixture(t)
	resp := fx.do(t, http.MethodGet, "/admin/categories/nope", "")

	require.Equal(t, http.StatusOK, resp.status)
	assert.True(t, resp.envelope.Success)
	assert.Nil(t, resp.envelope.Data)
	assert.Empty(t, resp.envelope.Errors)
}

func TestApi_SetActive(t *testing.T) {
	fx := newFixture(t)
	fx.store.add(t, domain.KindCategory, &domain.Category{
		Id: "arte", Name: domain.Text{Pt: "Arte"}, Meta: domain.Meta{Active: true},
	})

	resp := fx.do(t, http.MethodPatch, "/admin/categories/arte/active", `{"active":false}`)
	require.Equal(t, http.StatusOK, resp.status)

	stored, err := entitystore.GetAs[domain.Category](ctx, fx.store, domain.KindCategory, "arte")
	require.NoError(t, err)
	assert.False(t, stored.Active)
	assert.Equal(t, []domain.Change{{ID: "arte", Kind: domain.KindCategory}}, fx.outbox.enqueued)
}

func TestApi_SetActiveMissingIsNullData(t *testing.T) {
	fx := newFixture(t)
	resp := fx.do(t, http.MethodPatch, "/admin/categories/nope/active", `{"active":true}`)

	require.Equal(t, http.StatusOK, resp.status)
	assert.True(t, resp.envelope.Success)
	assert.Nil(t, resp.envelope.Data)
	assert.Empty(t, fx.outbox.enqueued)
}

func TestApi_List(t *testing.T) {
	fx := newFixture(t)
	fx.search.docs = []json.RawMessage{[]byte(`{"id":"arte"}`)}

	resp := fx.do(t, http.MethodGet, "/categories?name=art&parent=true&skip=5&take=2", "")
	require.Equal(t, http.StatusOK, resp.status)
	assert.True(t, resp.envelope.Success)

	require.Len(t, fx.search.searches, 1)
	q := fx.search.searches[0]
	assert.Equal(t, "art", q.Name)
	assert.True(t, q.RootOnly)
	assert.True(t, q.ActiveOnly)
	assert.Equal(t, 5, q.Skip)
	assert.Equal(t, 2, q.Take)
}

func TestApi_ListDefaults(t *testing.T) {
	fx := newFixture(t)
	resp := fx.do(t, http.MethodGet, "/events", "")
	require.Equal(t, http.StatusOK, resp.status)

	require.Len(t, fx.search.searches, 1)
	q := fx.search.searches[0]
	assert.Empty(t, q.Name)
	assert.False(t, q.RootOnly)
	assert.True(t, q.ActiveOnly)
	assert.Equal(t, 0, q.Skip)
	assert.Equal(t, 20, q.Take)
}

func TestApi_GetBySlug(t *testing.T) {
	fx := newFixture(t)
	fx.search.bySlug = map[string]json.RawMessage{"sarau": []byte(`{"id":"sarau","slug":"sarau"}`)}

	resp := fx.do(t, http.MethodGet, "/events/sarau", "")
	require.Equal(t, http.StatusOK, resp.status)
	data, err := json.Marshal(resp.envelope.Data)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"sarau","slug":"sarau"}`, string(data))
}

func TestApi_GetBySlugMissingIsNullData(t *testing.T) {
	fx := newFixture(t)
	resp := fx.do(t, http.MethodGet, "/events/nope", "")

	require.Equal(t, http.StatusOK, resp.status)
	assert.True(t, resp.envelope.Success)
	assert.Nil(t, resp.envelope.Data)
}

func TestApi_About(t *testing.T) {
	fx := newFixture(t)

	resp := fx.do(t, http.MethodGet, "/about", "")
	require.Equal(t, http.StatusOK, resp.status)
	assert.Nil(t, resp.envelope.Data)

	resp = fx.do(t, http.MethodPut, "/admin/about", `{"body":{"pt":"Quem somos"},"active":true}`)
	require.Equal(t, http.StatusOK, resp.status)

	resp = fx.do(t, http.MethodGet, "/about", "")
	require.Equal(t, http.StatusOK, resp.status)
	data, err := json.Marshal(resp.envelope.Data)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Quem somos")
}

func TestApi_EnqueueFailureStillStores(t *testing.T) {
	fx := newFixture(t)
	fx.outbox.err = fmt.Errorf("mysql down")

	resp := fx.do(t, http.MethodPost, "/admin/categories", `{"slug":"arte","name":{"pt":"Arte"}}`)
	require.Equal(t, http.StatusInternalServerError, resp.status)
	assert.Contains(t, resp.envelope.Errors, genericFailure)

	// the durable write stands; the outbox sweep will catch up later
	_, err := fx.store.Get(ctx, domain.KindCategory, "arte")
	require.NoError(t, err)
}

func TestApi_UnknownRoute(t *testing.T) {
	fx := newFixture(t)
	resp := fx.do(t, http.MethodGet, "/nope/nope/nope", "")
	require.Equal(t, http.StatusNotFound, resp.status)
	assert.False(t, resp.envelope.Success)
}

var ctx = context.Background()

type fixture struct {
	*service
	store  *fakeStore
	outbox *fakeOutbox
	search *fakeSearch
}

type response struct {
	status   int
	envelope envelope
}

func newFixture(t *testing.T) *fixture {
	fx := &fixture{
		store:  &fakeStore{data: map[string][]byte{}},
		outbox: &fakeOutbox{},
		search: &fakeSearch{},
	}
	fx.service = &service{
		store:    fx.store,
		outbox:   fx.outbox,
		search:   fx.search,
		validate: newValidator(),
	}
	fx.setupRouter()
	return fx
}

func (fx *fixture) do(t *testing.T, method, target, body string) response {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	fx.mux.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return response{status: rec.Code, envelope: env}
}

type fakeStore struct {
	data map[string][]byte
}

func (f *fakeStore) add(t *testing.T, kind domain.Kind, e domain.Entity) {
	require.NoError(t, f.Put(ctx, kind, e))
}

func (f *fakeStore) Init(a *app.App) error { return nil }
func (f *fakeStore) Name() string          { return entitystore.CName }

func (f *fakeStore) Get(ctx context.Context, kind domain.Kind, id string) ([]byte, error) {
	data, ok := f.data[string(kind)+"/"+id]
	if !ok {
		return nil, entitystore.ErrNotFound
	}
	return data, nil
}

func (f *fakeStore) GetWithETag(ctx context.Context, kind domain.Kind, id string) ([]byte, string, error) {
	data, err := f.Get(ctx, kind, id)
	return data, "1", err
}

func (f *fakeStore) Put(ctx context.Context, kind domain.Kind, e domain.Entity) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	f.data[string(kind)+"/"+e.EntityID()] = data
	return nil
}

func (f *fakeStore) PutIfMatch(ctx context.Context, kind domain.Kind, e domain.Entity, etag string) error {
	return f.Put(ctx, kind, e)
}

type fakeOutbox struct {
	enqueued []domain.Change
	err      error
}

func (f *fakeOutbox) Init(a *app.App) error           { return nil }
func (f *fakeOutbox) Name() string                    { return outbox.CName }
func (f *fakeOutbox) Run(ctx context.Context) error   { return nil }
func (f *fakeOutbox) Close(ctx context.Context) error { return nil }

func (f *fakeOutbox) Enqueue(ctx context.Context, change domain.Change) error {
	if f.err != nil {
		return f.err
	}
	f.enqueued = append(f.enqueued, change)
	return nil
}

type fakeSearch struct {
	searches []searchindex.Query
	docs     []json.RawMessage
	bySlug   map[string]json.RawMessage
}

func (f *fakeSearch) Init(a *app.App) error { return nil }
func (f *fakeSearch) Name() string          { return searchindex.CName }

func (f *fakeSearch) Upsert(ctx context.Context, index, id string, doc any) (searchindex.Result, error) {
	return searchindex.ResultCreated, nil
}

func (f *fakeSearch) GetByID(ctx context.Context, index, id string) (json.RawMessage, error) {
	return nil, searchindex.ErrNotFound
}

func (f *fakeSearch) GetBySlug(ctx context.Context, index, slug string) (json.RawMessage, error) {
	if doc, ok := f.bySlug[slug]; ok {
		return doc, nil
	}
	return nil, searchindex.ErrNotFound
}

func (f *fakeSearch) Search(ctx context.Context, index string, q searchindex.Query) ([]json.RawMessage, error) {
	f.searches = append(f.searches, q)
	return f.docs, nil
}

func (f *fakeSearch) DeleteByQuery(ctx context.Context, index, entityId string) error { return nil }

func (f *fakeSearch) Bulk(ctx context.Context, index string, items []searchindex.BulkItem) error {
	return nil
}

func (f *fakeSearch) IndexFor(kind domain.Kind) string { return "test-" + string(kind) }
