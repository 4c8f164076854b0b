package domain

import "time"

// Index documents are denormalized projections of entities, optimized for
// listing and search. The Id field always equals the source entity id:
// it is the join key between the canonical store and the search index.
// Heavy fields (article bodies, event descriptions) are dropped.

type CategoryDoc struct {
	Id        string    `json:"id"`
	ParentId  string    `json:"parent_id,omitempty"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	NameI18n  Text      `json:"name_i18n"`
	Active    bool      `json:"active"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ArticleDoc struct {
	Id         string    `json:"id"`
	Slug       string    `json:"slug"`
	CategoryId string    `json:"category_id,omitempty"`
	Name       string    `json:"name"`
	NameI18n   Text      `json:"name_i18n"`
	Summary    Text      `json:"summary,omitempty"`
	AuthorName string    `json:"author_name,omitempty"`
	ImageUrl   string    `json:"image_url,omitempty"`
	Tags       []string  `json:"tags,omitempty"`
	Active     bool      `json:"active"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// EventDoc is one occurrence of an event. The document _id in the index
// is "{id}:{ordinal}" while Id keeps the plain entity id, so that
// delete-by-query on the id field removes the whole fan-out at once.
type EventDoc struct {
	Id           string    `json:"id"`
	Slug         string    `json:"slug"`
	CategoryId   string    `json:"category_id,omitempty"`
	Name         string    `json:"name"`
	NameI18n     Text      `json:"name_i18n"`
	CompanyId    string    `json:"company_id,omitempty"`
	CompanyName  string    `json:"company_name,omitempty"`
	LocationId   string    `json:"location_id,omitempty"`
	LocationName string    `json:"location_name,omitempty"`
	City         string    `json:"city,omitempty"`
	ImageUrl     string    `json:"image_url,omitempty"`
	Price        float64   `json:"price,omitempty"`
	StartsAt     time.Time `json:"starts_at,omitempty"`
	EndsAt       time.Time `json:"ends_at,omitempty"`
	Active       bool      `json:"active"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type LocationDoc struct {
	Id        string    `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	NameI18n  Text      `json:"name_i18n"`
	City      string    `json:"city,omitempty"`
	State     string    `json:"state,omitempty"`
	Country   string    `json:"country,omitempty"`
	Active    bool      `json:"active"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CompanyDoc struct {
	Id        string    `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	NameI18n  Text      `json:"name_i18n"`
	LogoUrl   string    `json:"logo_url,omitempty"`
	Active    bool      `json:"active"`
	UpdatedAt time.Time `json:"updated_at"`
}

type AdvertisementDoc struct {
	Id        string    `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	ImageUrl  string    `json:"image_url"`
	TargetUrl string    `json:"target_url,omitempty"`
	StartsAt  time.Time `json:"starts_at,omitempty"`
	EndsAt    time.Time `json:"ends_at,omitempty"`
	Active    bool      `json:"active"`
	UpdatedAt time.Time `json:"updated_at"`
}
