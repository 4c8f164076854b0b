package searchindex

import "strings"

// Query describes a listing search. The zero value lists everything.
type Query struct {
	// Name is a case-insensitive substring filter on the name keyword
	// field.
	Name string
	// RootOnly keeps only documents without a parent_id.
	RootOnly bool
	// ActiveOnly keeps only documents with active == true.
	ActiveOnly bool
	Skip       int
	Take       int
}

// wildcard metacharacters must not leak from user input into the query.
var wildcardEscaper = strings.NewReplacer("*", "\\*", "?", "\\?")

func (q Query) body() map[string]any {
	var must, mustNot, filter []any
	if q.Name != "" {
		must = append(must, map[string]any{
			"wildcard": map[string]any{
				"name.keyword": map[string]any{
					"value":            "*" + wildcardEscaper.Replace(q.Name) + "*",
					"case_insensitive": true,
				},
			},
		})
	}
	if q.RootOnly {
		mustNot = append(mustNot, map[string]any{
			"exists": map[string]any{"field": "parent_id"},
		})
	}
	if q.ActiveOnly {
		filter = append(filter, map[string]any{
			"term": map[string]any{"active": true},
		})
	}

	var query map[string]any
	if len(must) == 0 && len(mustNot) == 0 && len(filter) == 0 {
		query = map[string]any{"match_all": map[string]any{}}
	} else {
		boolQuery := map[string]any{}
		if len(must) > 0 {
			boolQuery["must"] = must
		}
		if len(mustNot) > 0 {
			boolQuery["must_not"] = mustNot
		}
		if len(filter) > 0 {
			boolQuery["filter"] = filter
		}
		query = map[string]any{"bool": boolQuery}
	}

	take := q.Take
	if take <= 0 {
		take = 20
	}
	return map[string]any{
		"from":  q.Skip,
		"size":  take,
		"query": query,
	}
}

// slugQuery matches one slug exactly. Slugs are not globally unique
// across history, so hits are sorted by updated_at descending and the
// first one wins.
func slugQuery(slug string) map[string]any {
	return map[string]any{
		"size": 1,
		"query": map[string]any{
			"term": map[string]any{"slug.keyword": slug},
		},
		"sort": []any{
			map[string]any{"updated_at": map[string]any{"order": "desc"}},
		},
	}
}

func deleteByIdQuery(entityId string) map[string]any {
	return map[string]any{
		"query": map[string]any{
			"term": map[string]any{"id": entityId},
		},
	}
}
