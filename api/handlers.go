package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/andrade-gabriel/ahocultural/domain"
	"github.com/andrade-gabriel/ahocultural/entitystore"
	"github.com/andrade-gabriel/ahocultural/metrics"
	"github.com/andrade-gabriel/ahocultural/searchindex"
)

const genericFailure = "operation failed, contact support"

// create handles POST /admin/{plural}. The id comes from the input slug
// when present, otherwise a uuid is generated. A reused slug overwrites
// the entity but keeps its created_at seed.
func (s *service) create(spec kindSpec) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeFail(w, http.StatusBadRequest, "unable to read request body")
			return
		}
		id := inputSlug(body)
		if id == "" {
			id = uuid.NewString()
		}
		existing, err := s.loadExisting(r, spec, id)
		if err != nil {
			s.fail(w, spec.kind, "load", err)
			return
		}
		s.upsertEntity(w, r, spec, id, body, existing)
	}
}

// update handles PUT /admin/{plural}/{id}. The existing entity seeds
// created_at so it survives the overwrite.
func (s *service) update(spec kindSpec) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeFail(w, http.StatusBadRequest, "unable to read request body")
			return
		}
		id := r.PathValue("id")
		existing, err := s.loadExisting(r, spec, id)
		if err != nil {
			s.fail(w, spec.kind, "load", err)
			return
		}
		s.upsertEntity(w, r, spec, id, body, existing)
	}
}

func (s *service) loadExisting(r *http.Request, spec kindSpec, id string) (domain.Entity, error) {
	data, err := s.store.Get(r.Context(), spec.kind, id)
	if errors.Is(err, entitystore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	entity := spec.blank()
	if err = json.Unmarshal(data, entity); err != nil {
		return nil, err
	}
	return entity, nil
}

// upsertEntity is the shared write path: validate, store, enqueue. The
// store write stands even when the enqueue fails; the request still
// fails so the operator knows the index update is pending.
func (s *service) upsertEntity(w http.ResponseWriter, r *http.Request, spec kindSpec, id string, body []byte, existing domain.Entity) {
	entity, msgs, err := spec.build(s.validate, id, body)
	if err != nil {
		s.fail(w, spec.kind, "build", err)
		return
	}
	if len(msgs) > 0 {
		writeFail(w, http.StatusBadRequest, msgs...)
		return
	}
	if existing != nil {
		entity.Audit().CreatedAt = existing.Audit().CreatedAt
	}
	ctx := r.Context()
	if err = s.store.Put(ctx, spec.kind, entity); err != nil {
		s.fail(w, spec.kind, "store", err)
		return
	}
	metrics.EntityWritesTotal.WithLabelValues(string(spec.kind)).Inc()
	if err = s.outbox.Enqueue(ctx, domain.Change{ID: id, Kind: spec.kind}); err != nil {
		s.fail(w, spec.kind, "enqueue", err)
		return
	}
	writeData(w, entity)
}

// setActive handles PATCH /admin/{plural}/{id}/active.
func (s *service) setActive(spec kindSpec) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in activeInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeFail(w, http.StatusBadRequest, "request body is not valid json")
			return
		}
		id := r.PathValue("id")
		ctx := r.Context()
		existing, err := s.loadExisting(r, spec, id)
		if err != nil {
			s.fail(w, spec.kind, "load", err)
			return
		}
		if existing == nil {
			writeData(w, nil)
			return
		}
		existing.Audit().Active = in.Active
		if err = s.store.Put(ctx, spec.kind, existing); err != nil {
			s.fail(w, spec.kind, "store", err)
			return
		}
		metrics.EntityWritesTotal.WithLabelValues(string(spec.kind)).Inc()
		if err = s.outbox.Enqueue(ctx, domain.Change{ID: id, Kind: spec.kind}); err != nil {
			s.fail(w, spec.kind, "enqueue", err)
			return
		}
		writeData(w, existing)
	}
}

// adminGet handles GET /admin/{plural}/{id}, reading the canonical
// store. A missing entity answers success with null data.
func (s *service) adminGet(spec kindSpec) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entity, err := s.loadExisting(r, spec, r.PathValue("id"))
		if err != nil {
			s.fail(w, spec.kind, "load", err)
			return
		}
		if entity == nil {
			writeData(w, nil)
			return
		}
		writeData(w, entity)
	}
}

// list handles GET /{plural}: a paginated, optionally filtered listing
// served from the search index, not from the canonical store.
func (s *service) list(spec kindSpec) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := searchindex.Query{
			Name:       strings.TrimSpace(r.URL.Query().Get("name")),
			RootOnly:   spec.kind == domain.KindCategory && r.URL.Query().Get("parent") == "true",
			ActiveOnly: true,
			Skip:       queryInt(r, "skip", 0),
			Take:       queryInt(r, "take", 20),
		}
		metrics.SearchQueriesTotal.Inc()
		docs, err := s.search.Search(r.Context(), s.search.IndexFor(spec.kind), q)
		if err != nil {
			s.fail(w, spec.kind, "search", err)
			return
		}
		raws := make([]json.RawMessage, len(docs))
		copy(raws, docs)
		writeData(w, raws)
	}
}

// getBySlug handles GET /{plural}/{slug}, served from the search index.
// A slug shared across history resolves to the most recently updated
// document; a missing slug answers success with null data.
func (s *service) getBySlug(spec kindSpec) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metrics.SearchQueriesTotal.Inc()
		doc, err := s.search.GetBySlug(r.Context(), s.search.IndexFor(spec.kind), r.PathValue("slug"))
		if errors.Is(err, searchindex.ErrNotFound) {
			writeData(w, nil)
			return
		}
		if err != nil {
			s.fail(w, spec.kind, "search", err)
			return
		}
		writeData(w, doc)
	}
}

// aboutGet and aboutPut serve the institutional singleton straight from
// the store.
func (s *service) aboutGet(w http.ResponseWriter, r *http.Request) {
	data, err := s.store.Get(r.Context(), domain.KindAbout, domain.AboutId)
	if errors.Is(err, entitystore.ErrNotFound) {
		writeData(w, nil)
		return
	}
	if err != nil {
		s.fail(w, domain.KindAbout, "load", err)
		return
	}
	writeData(w, json.RawMessage(data))
}

func (s *service) aboutPut(w http.ResponseWriter, r *http.Request) {
	var in aboutInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeFail(w, http.StatusBadRequest, "request body is not valid json")
		return
	}
	if err := s.validate.Struct(in); err != nil {
		writeFail(w, http.StatusBadRequest, validationMessages(err)...)
		return
	}
	ctx := r.Context()
	about := &domain.About{
		Meta: domain.Meta{Active: in.Active},
		Id:   domain.AboutId,
		Body: in.Body,
	}
	if existing, err := entitystore.GetAs[domain.About](ctx, s.store, domain.KindAbout, domain.AboutId); err == nil {
		about.CreatedAt = existing.CreatedAt
	} else if !errors.Is(err, entitystore.ErrNotFound) {
		s.fail(w, domain.KindAbout, "load", err)
		return
	}
	if err := s.store.Put(ctx, domain.KindAbout, about); err != nil {
		s.fail(w, domain.KindAbout, "store", err)
		return
	}
	metrics.EntityWritesTotal.WithLabelValues(string(domain.KindAbout)).Inc()
	writeData(w, about)
}

func (s *service) fail(w http.ResponseWriter, kind domain.Kind, op string, err error) {
	log.Error("request failed", zap.String("kind", string(kind)), zap.String("op", op), zap.Error(err))
	writeFail(w, http.StatusInternalServerError, genericFailure)
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
