package domain

import "time"

var (
	_ Entity = (*Category)(nil)
	_ Entity = (*Article)(nil)
	_ Entity = (*Event)(nil)
	_ Entity = (*Location)(nil)
	_ Entity = (*Company)(nil)
	_ Entity = (*Advertisement)(nil)
	_ Entity = (*About)(nil)
)

// Category groups events and articles. ParentId is a weak reference to
// another category, empty for root-level categories.
type Category struct {
	Meta
	Id       string `json:"id"`
	ParentId string `json:"parent_id,omitempty"`
	Name     Text   `json:"name"`
}

func (c *Category) EntityID() string { return c.Id }

// Article is an editorial piece. Body is the heavy field dropped from the
// index projection.
type Article struct {
	Meta
	Id         string   `json:"id"`
	CategoryId string   `json:"category_id,omitempty"`
	Title      Text     `json:"title"`
	Summary    Text     `json:"summary,omitempty"`
	Body       Text     `json:"body,omitempty"`
	AuthorName string   `json:"author_name,omitempty"`
	ImageUrl   string   `json:"image_url,omitempty"`
	Tags       []string `json:"tags,omitempty"`
}

func (a *Article) EntityID() string { return a.Id }

// Occurrence is one concrete date range of an event.
type Occurrence struct {
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at,omitempty"`
}

// Event references its company and location by bare ids; both are
// re-resolved at index time. An event with more than one occurrence fans
// out into one index document per occurrence.
type Event struct {
	Meta
	Id          string       `json:"id"`
	CategoryId  string       `json:"category_id,omitempty"`
	CompanyId   string       `json:"company_id,omitempty"`
	LocationId  string       `json:"location_id,omitempty"`
	Name        Text         `json:"name"`
	Description Text         `json:"description,omitempty"`
	ImageUrl    string       `json:"image_url,omitempty"`
	TicketUrl   string       `json:"ticket_url,omitempty"`
	Price       float64      `json:"price,omitempty"`
	Occurrences []Occurrence `json:"occurrences,omitempty"`
}

func (e *Event) EntityID() string { return e.Id }

// Location is a venue.
type Location struct {
	Meta
	Id      string  `json:"id"`
	Name    Text    `json:"name"`
	Address string  `json:"address,omitempty"`
	City    string  `json:"city,omitempty"`
	State   string  `json:"state,omitempty"`
	Country string  `json:"country,omitempty"`
	Lat     float64 `json:"lat,omitempty"`
	Lng     float64 `json:"lng,omitempty"`
}

func (l *Location) EntityID() string { return l.Id }

// Company is an event producer or promoter.
type Company struct {
	Meta
	Id          string `json:"id"`
	Name        Text   `json:"name"`
	Description Text   `json:"description,omitempty"`
	SiteUrl     string `json:"site_url,omitempty"`
	LogoUrl     string `json:"logo_url,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
}

func (c *Company) EntityID() string { return c.Id }

// Advertisement is a paid banner shown on the public portal.
type Advertisement struct {
	Meta
	Id        string    `json:"id"`
	Name      string    `json:"name"`
	ImageUrl  string    `json:"image_url"`
	TargetUrl string    `json:"target_url,omitempty"`
	StartsAt  time.Time `json:"starts_at,omitempty"`
	EndsAt    time.Time `json:"ends_at,omitempty"`
}

func (a *Advertisement) EntityID() string { return a.Id }

// AboutId is the fixed id of the institutional about singleton, stored at
// institutional/about.json.
const AboutId = "about"

// About is the institutional page singleton.
type About struct {
	Meta
	Id   string `json:"id"`
	Body Text   `json:"body"`
}

func (a *About) EntityID() string { return a.Id }
