package domain

import "time"

// Kind identifies an entity family and selects its object-store prefix
// and search index.
type Kind string

const (
	KindArticle       Kind = "article"
	KindCategory      Kind = "category"
	KindEvent         Kind = "event"
	KindLocation      Kind = "location"
	KindCompany       Kind = "company"
	KindAdvertisement Kind = "advertisement"
	KindAbout         Kind = "about"
)

var kindPrefixes = map[Kind]string{
	KindArticle:       "articles/",
	KindCategory:      "categories/",
	KindEvent:         "events/",
	KindLocation:      "locations/",
	KindCompany:       "companies/",
	KindAdvertisement: "advertisements/",
	KindAbout:         "institutional/",
}

func (k Kind) Valid() bool {
	_, ok := kindPrefixes[k]
	return ok
}

// Prefix returns the object-store prefix for the kind, always with a
// trailing slash.
func (k Kind) Prefix() string {
	return kindPrefixes[k]
}

// Kinds lists all known entity kinds.
func Kinds() []Kind {
	return []Kind{
		KindArticle,
		KindCategory,
		KindEvent,
		KindLocation,
		KindCompany,
		KindAdvertisement,
		KindAbout,
	}
}

// Text is an internationalized text triple. Default returns the first
// non-empty translation, pt first.
type Text struct {
	Pt string `json:"pt,omitempty"`
	En string `json:"en,omitempty"`
	Es string `json:"es,omitempty"`
}

func (t Text) Default() string {
	if t.Pt != "" {
		return t.Pt
	}
	if t.En != "" {
		return t.En
	}
	return t.Es
}

// Meta carries the audit fields shared by every entity. CreatedAt is set
// once on the first write and preserved afterwards; UpdatedAt is set on
// every write.
type Meta struct {
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
	Active    bool      `json:"active"`
}

// Audit exposes the embedded Meta through the Entity interface. The
// accessor cannot be called Meta: the embedded field of the same name
// would shadow it on every entity struct.
func (m *Meta) Audit() *Meta { return m }

// Entity is any canonical business record stored as one JSON document
// per id.
type Entity interface {
	EntityID() string
	Audit() *Meta
}

// Change is the payload carried across the asynchronous boundary between
// a write and its re-indexing. The ingestor treats it as a hint and
// always re-reads the canonical entity.
type Change struct {
	ID   string `json:"id"`
	Kind Kind   `json:"kind"`
}
