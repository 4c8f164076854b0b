package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/andrade-gabriel/ahocultural/domain"
)

// newValidator registers domain.Text as a custom type validated through
// its default translation. Without the type func the validator recurses
// into the struct and tags like required on a Text field are never
// evaluated.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if text, ok := field.Interface().(domain.Text); ok {
			return text.Default()
		}
		return nil
	}, domain.Text{})
	return v
}

// Write inputs are decoded into per-kind DTOs and validated before an
// entity is built. Slug is optional on create; a missing slug gets a
// generated uuid id.

type categoryInput struct {
	Slug     string      `json:"slug" validate:"omitempty,max=120"`
	ParentId string      `json:"parent_id"`
	Name     domain.Text `json:"name" validate:"required"`
	Active   bool        `json:"active"`
}

type articleInput struct {
	Slug       string      `json:"slug" validate:"omitempty,max=120"`
	CategoryId string      `json:"category_id"`
	Title      domain.Text `json:"title" validate:"required"`
	Summary    domain.Text `json:"summary"`
	Body       domain.Text `json:"body"`
	AuthorName string      `json:"author_name"`
	ImageUrl   string      `json:"image_url" validate:"omitempty,url"`
	Tags       []string    `json:"tags"`
	Active     bool        `json:"active"`
}

type eventInput struct {
	Slug        string              `json:"slug" validate:"omitempty,max=120"`
	CategoryId  string              `json:"category_id"`
	CompanyId   string              `json:"company_id"`
	LocationId  string              `json:"location_id"`
	Name        domain.Text         `json:"name" validate:"required"`
	Description domain.Text         `json:"description"`
	ImageUrl    string              `json:"image_url" validate:"omitempty,url"`
	TicketUrl   string              `json:"ticket_url" validate:"omitempty,url"`
	Price       float64             `json:"price" validate:"gte=0"`
	Occurrences []domain.Occurrence `json:"occurrences"`
	Active      bool                `json:"active"`
}

type locationInput struct {
	Slug    string      `json:"slug" validate:"omitempty,max=120"`
	Name    domain.Text `json:"name" validate:"required"`
	Address string      `json:"address"`
	City    string      `json:"city"`
	State   string      `json:"state"`
	Country string      `json:"country"`
	Lat     float64     `json:"lat" validate:"gte=-90,lte=90"`
	Lng     float64     `json:"lng" validate:"gte=-180,lte=180"`
	Active  bool        `json:"active"`
}

type companyInput struct {
	Slug        string      `json:"slug" validate:"omitempty,max=120"`
	Name        domain.Text `json:"name" validate:"required"`
	Description domain.Text `json:"description"`
	SiteUrl     string      `json:"site_url" validate:"omitempty,url"`
	LogoUrl     string      `json:"logo_url" validate:"omitempty,url"`
	Email       string      `json:"email" validate:"omitempty,email"`
	Phone       string      `json:"phone"`
	Active      bool        `json:"active"`
}

type advertisementInput struct {
	Slug      string `json:"slug" validate:"omitempty,max=120"`
	Name      string `json:"name" validate:"required"`
	ImageUrl  string `json:"image_url" validate:"required,url"`
	TargetUrl string `json:"target_url" validate:"omitempty,url"`
	StartsAt  string `json:"starts_at"`
	EndsAt    string `json:"ends_at"`
	Active    bool   `json:"active"`
}

type aboutInput struct {
	Body   domain.Text `json:"body" validate:"required"`
	Active bool        `json:"active"`
}

type activeInput struct {
	Active bool `json:"active"`
}

// kindSpec binds one entity kind to its url segment, its input decoding
// and a blank entity for unmarshaling stored documents.
type kindSpec struct {
	kind   domain.Kind
	plural string
	blank  func() domain.Entity
	build  func(v *validator.Validate, id string, data []byte) (domain.Entity, []string, error)
}

func specs() []kindSpec {
	return []kindSpec{
		{
			kind: domain.KindCategory, plural: "categories",
			blank: func() domain.Entity { return &domain.Category{} },
			build: func(v *validator.Validate, id string, data []byte) (domain.Entity, []string, error) {
				return buildEntity(v, data, func(in categoryInput) domain.Entity {
					return &domain.Category{
						Meta:     domain.Meta{Active: in.Active},
						Id:       id,
						ParentId: in.ParentId,
						Name:     in.Name,
					}
				})
			},
		},
		{
			kind: domain.KindArticle, plural: "articles",
			blank: func() domain.Entity { return &domain.Article{} },
			build: func(v *validator.Validate, id string, data []byte) (domain.Entity, []string, error) {
				return buildEntity(v, data, func(in articleInput) domain.Entity {
					return &domain.Article{
						Meta:       domain.Meta{Active: in.Active},
						Id:         id,
						CategoryId: in.CategoryId,
						Title:      in.Title,
						Summary:    in.Summary,
						Body:       in.Body,
						AuthorName: in.AuthorName,
						ImageUrl:   in.ImageUrl,
						Tags:       in.Tags,
					}
				})
			},
		},
		{
			kind: domain.KindEvent, plural: "events",
			blank: func() domain.Entity { return &domain.Event{} },
			build: func(v *validator.Validate, id string, data []byte) (domain.Entity, []string, error) {
				return buildEntity(v, data, func(in eventInput) domain.Entity {
					return &domain.Event{
						Meta:        domain.Meta{Active: in.Active},
						Id:          id,
						CategoryId:  in.CategoryId,
						CompanyId:   in.CompanyId,
						LocationId:  in.LocationId,
						Name:        in.Name,
						Description: in.Description,
						ImageUrl:    in.ImageUrl,
						TicketUrl:   in.TicketUrl,
						Price:       in.Price,
						Occurrences: in.Occurrences,
					}
				})
			},
		},
		{
			kind: domain.KindLocation, plural: "locations",
			blank: func() domain.Entity { return &domain.Location{} },
			build: func(v *validator.Validate, id string, data []byte) (domain.Entity, []string, error) {
				return buildEntity(v, data, func(in locationInput) domain.Entity {
					return &domain.Location{
						Meta:    domain.Meta{Active: in.Active},
						Id:      id,
						Name:    in.Name,
						Address: in.Address,
						City:    in.City,
						State:   in.State,
						Country: in.Country,
						Lat:     in.Lat,
						Lng:     in.Lng,
					}
				})
			},
		},
		{
			kind: domain.KindCompany, plural: "companies",
			blank: func() domain.Entity { return &domain.Company{} },
			build: func(v *validator.Validate, id string, data []byte) (domain.Entity, []string, error) {
				return buildEntity(v, data, func(in companyInput) domain.Entity {
					return &domain.Company{
						Meta:        domain.Meta{Active: in.Active},
						Id:          id,
						Name:        in.Name,
						Description: in.Description,
						SiteUrl:     in.SiteUrl,
						LogoUrl:     in.LogoUrl,
						Email:       in.Email,
						Phone:       in.Phone,
					}
				})
			},
		},
		{
			kind: domain.KindAdvertisement, plural: "advertisements",
			blank: func() domain.Entity { return &domain.Advertisement{} },
			build: func(v *validator.Validate, id string, data []byte) (domain.Entity, []string, error) {
				return buildEntity(v, data, func(in advertisementInput) domain.Entity {
					ad := &domain.Advertisement{
						Meta:      domain.Meta{Active: in.Active},
						Id:        id,
						Name:      in.Name,
						ImageUrl:  in.ImageUrl,
						TargetUrl: in.TargetUrl,
					}
					ad.StartsAt, _ = parseTime(in.StartsAt)
					ad.EndsAt, _ = parseTime(in.EndsAt)
					return ad
				})
			},
		},
	}
}

// buildEntity decodes and validates one input body. Validation failures
// come back as messages, not as an error: the caller maps them to a 400.
func buildEntity[I any](v *validator.Validate, data []byte, build func(I) domain.Entity) (domain.Entity, []string, error) {
	var in I
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, []string{"request body is not valid json"}, nil
	}
	if err := v.Struct(in); err != nil {
		return nil, validationMessages(err), nil
	}
	return build(in), nil, nil
}

// inputSlug extracts the slug field without decoding the full input.
func inputSlug(data []byte) string {
	var in struct {
		Slug string `json:"slug"`
	}
	_ = json.Unmarshal(data, &in)
	return strings.TrimSpace(in.Slug)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}

func validationMessages(err error) []string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []string{err.Error()}
	}
	msgs := make([]string, len(fieldErrs))
	for i, fe := range fieldErrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs[i] = fmt.Sprintf("%s is required", field)
		case "url":
			msgs[i] = fmt.Sprintf("%s must be a valid url", field)
		case "email":
			msgs[i] = fmt.Sprintf("%s must be a valid email", field)
		case "max":
			msgs[i] = fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		default:
			msgs[i] = fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
		}
	}
	return msgs
}
