package ingestor

import (
	"fmt"

	"github.com/andrade-gabriel/ahocultural/domain"
)

// Mapping from canonical entities to index documents. Pure projections:
// heavy fields are dropped, weak references arrive already resolved.

func mapCategory(c *domain.Category) domain.CategoryDoc {
	return domain.CategoryDoc{
		Id:        c.Id,
		ParentId:  c.ParentId,
		Slug:      c.Id,
		Name:      c.Name.Default(),
		NameI18n:  c.Name,
		Active:    c.Active,
		UpdatedAt: c.UpdatedAt,
	}
}

func mapArticle(a *domain.Article) domain.ArticleDoc {
	return domain.ArticleDoc{
		Id:         a.Id,
		Slug:       a.Id,
		CategoryId: a.CategoryId,
		Name:       a.Title.Default(),
		NameI18n:   a.Title,
		Summary:    a.Summary,
		AuthorName: a.AuthorName,
		ImageUrl:   a.ImageUrl,
		Tags:       a.Tags,
		Active:     a.Active,
		UpdatedAt:  a.UpdatedAt,
	}
}

func mapLocation(l *domain.Location) domain.LocationDoc {
	return domain.LocationDoc{
		Id:        l.Id,
		Slug:      l.Id,
		Name:      l.Name.Default(),
		NameI18n:  l.Name,
		City:      l.City,
		State:     l.State,
		Country:   l.Country,
		Active:    l.Active,
		UpdatedAt: l.UpdatedAt,
	}
}

func mapCompany(c *domain.Company) domain.CompanyDoc {
	return domain.CompanyDoc{
		Id:        c.Id,
		Slug:      c.Id,
		Name:      c.Name.Default(),
		NameI18n:  c.Name,
		LogoUrl:   c.LogoUrl,
		Active:    c.Active,
		UpdatedAt: c.UpdatedAt,
	}
}

func mapAdvertisement(a *domain.Advertisement) domain.AdvertisementDoc {
	return domain.AdvertisementDoc{
		Id:        a.Id,
		Slug:      a.Id,
		Name:      a.Name,
		ImageUrl:  a.ImageUrl,
		TargetUrl: a.TargetUrl,
		StartsAt:  a.StartsAt,
		EndsAt:    a.EndsAt,
		Active:    a.Active,
		UpdatedAt: a.UpdatedAt,
	}
}

// mapEvent fans one event out into one document per occurrence, all
// sharing the entity id in the id field. An event without occurrences
// still yields one document so it stays listable.
func mapEvent(e *domain.Event, company *domain.Company, location *domain.Location) []domain.EventDoc {
	base := domain.EventDoc{
		Id:         e.Id,
		Slug:       e.Id,
		CategoryId: e.CategoryId,
		Name:       e.Name.Default(),
		NameI18n:   e.Name,
		CompanyId:  e.CompanyId,
		LocationId: e.LocationId,
		ImageUrl:   e.ImageUrl,
		Price:      e.Price,
		Active:     e.Active,
		UpdatedAt:  e.UpdatedAt,
	}
	if company != nil {
		base.CompanyName = company.Name.Default()
	}
	if location != nil {
		base.LocationName = location.Name.Default()
		base.City = location.City
	}
	if len(e.Occurrences) == 0 {
		return []domain.EventDoc{base}
	}
	docs := make([]domain.EventDoc, len(e.Occurrences))
	for i, occ := range e.Occurrences {
		doc := base
		doc.StartsAt = occ.StartsAt
		doc.EndsAt = occ.EndsAt
		docs[i] = doc
	}
	return docs
}

// eventDocId derives the index document _id for one occurrence. The
// ordinal suffix keeps occurrence documents distinct while the id field
// keeps the plain entity id for delete-by-query.
func eventDocId(entityId string, ordinal int) string {
	return fmt.Sprintf("%s:%d", entityId, ordinal)
}
