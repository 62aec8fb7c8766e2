package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Search limits.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// SearchParams configures a course search.
type SearchParams struct {
	Query string

	// Filters
	CategoryID    string
	SubcategoryID string
	PublishedOnly bool

	// Pagination
	Limit  int
	Offset int

	// "relevance" (default), "title" or "recent"
	SortBy    string
	SortOrder string // "asc", "desc"

	IncludeFacets bool
	Highlight     bool
}

// DefaultSearchParams returns the parameters used by the public search endpoint.
func DefaultSearchParams() SearchParams {
	return SearchParams{
		Limit:         DefaultLimit,
		SortBy:        "relevance",
		SortOrder:     "desc",
		PublishedOnly: true,
		Highlight:     true,
	}
}

// normalize clamps pagination into range.
func (p *SearchParams) normalize() {
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	p.Query = strings.TrimSpace(p.Query)
}

// SearchResult represents the search results.
type SearchResult struct {
	Query  string       `json:"query"`
	Total  uint64       `json:"total"`
	TookMs int64        `json:"took_ms"`
	Hits   []SearchHit  `json:"hits"`
	Facets SearchFacets `json:"facets,omitzero"`
}

// SearchHit is a single matching course.
type SearchHit struct {
	ID            string            `json:"id"`
	Score         float64           `json:"score"`
	Title         string            `json:"title"`
	Slug          string            `json:"slug"`
	CategoryID    string            `json:"category_id"`
	SubcategoryID string            `json:"subcategory_id"`
	Published     bool              `json:"published"`
	Chapters      int               `json:"chapters"`
	Students      int               `json:"students"`
	Highlights    map[string]string `json:"highlights,omitempty"`
}

// SearchFacets contains facet counts.
type SearchFacets struct {
	Categories    []FacetCount `json:"categories,omitempty"`
	Subcategories []FacetCount `json:"subcategories,omitempty"`
}

// FacetCount represents a facet value and its count.
type FacetCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Search executes a search query.
func (s *CourseIndex) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	params.normalize()

	s.mu.RLock()
	defer s.mu.RUnlock()

	req := bleve.NewSearchRequestOptions(buildSearchQuery(params), params.Limit, params.Offset, false)
	addSorting(req, params)

	if params.IncludeFacets {
		req.AddFacet("category_id", bleve.NewFacetRequest("category_id", 20))
		req.AddFacet("subcategory_id", bleve.NewFacetRequest("subcategory_id", 20))
	}

	if params.Highlight {
		req.Highlight = bleve.NewHighlight()
		req.Highlight.AddField("title")
	}

	req.Fields = []string{
		"id", "title", "slug", "category_id", "subcategory_id",
		"published", "chapters", "students",
	}

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &SearchResult{
		Query:  params.Query,
		Total:  res.Total,
		TookMs: res.Took.Milliseconds(),
		Hits:   make([]SearchHit, 0, len(res.Hits)),
	}

	for _, hit := range res.Hits {
		h := SearchHit{
			ID:    hit.ID,
			Score: hit.Score,
		}
		if v, ok := hit.Fields["title"].(string); ok {
			h.Title = v
		}
		if v, ok := hit.Fields["slug"].(string); ok {
			h.Slug = v
		}
		if v, ok := hit.Fields["category_id"].(string); ok {
			h.CategoryID = v
		}
		if v, ok := hit.Fields["subcategory_id"].(string); ok {
			h.SubcategoryID = v
		}
		if v, ok := hit.Fields["published"].(bool); ok {
			h.Published = v
		}
		if v, ok := hit.Fields["chapters"].(float64); ok {
			h.Chapters = int(v)
		}
		if v, ok := hit.Fields["students"].(float64); ok {
			h.Students = int(v)
		}

		if len(hit.Fragments) > 0 {
			h.Highlights = make(map[string]string)
			for field, fragments := range hit.Fragments {
				if len(fragments) > 0 {
					h.Highlights[field] = fragments[0]
				}
			}
		}

		result.Hits = append(result.Hits, h)
	}

	if params.IncludeFacets {
		result.Facets = extractFacets(res)
	}

	return result, nil
}

// buildSearchQuery constructs the Bleve query from params.
//
// Free text matches the title (boosted, with fuzzy and prefix variants for
// typos and autocomplete) or the description. Filters are ANDed on top.
func buildSearchQuery(params SearchParams) query.Query {
	var queries []query.Query

	if params.Query != "" {
		titleMatch := bleve.NewMatchQuery(params.Query)
		titleMatch.SetField("title")
		titleMatch.SetBoost(3.0)

		descMatch := bleve.NewMatchQuery(params.Query)
		descMatch.SetField("description")
		descMatch.SetBoost(1.0)

		fuzzy := bleve.NewFuzzyQuery(strings.ToLower(params.Query))
		fuzzy.SetFuzziness(1)
		fuzzy.SetField("title")
		fuzzy.SetBoost(0.8)

		textQueries := []query.Query{titleMatch, descMatch, fuzzy}

		// Autocomplete, minimum 2 chars
		if len(params.Query) >= 2 {
			prefix := bleve.NewPrefixQuery(strings.ToLower(params.Query))
			prefix.SetField("title")
			prefix.SetBoost(0.5)
			textQueries = append(textQueries, prefix)
		}

		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	if params.CategoryID != "" {
		q := bleve.NewTermQuery(params.CategoryID)
		q.SetField("category_id")
		queries = append(queries, q)
	}

	if params.SubcategoryID != "" {
		q := bleve.NewTermQuery(params.SubcategoryID)
		q.SetField("subcategory_id")
		queries = append(queries, q)
	}

	if params.PublishedOnly {
		q := bleve.NewBoolFieldQuery(true)
		q.SetField("published")
		queries = append(queries, q)
	}

	switch len(queries) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return queries[0]
	default:
		return bleve.NewConjunctionQuery(queries...)
	}
}

// addSorting configures sort order.
func addSorting(req *bleve.SearchRequest, params SearchParams) {
	desc := params.SortOrder == "desc"
	switch params.SortBy {
	case "title":
		if desc {
			req.SortBy([]string{"-title"})
		} else {
			req.SortBy([]string{"title"})
		}
	case "recent":
		if params.SortOrder == "asc" {
			req.SortBy([]string{"created_at"})
		} else {
			req.SortBy([]string{"-created_at"})
		}
	default:
		req.SortBy([]string{"-_score"})
	}
}

// extractFacets converts Bleve facets to our format.
func extractFacets(result *bleve.SearchResult) SearchFacets {
	var facets SearchFacets

	if f, ok := result.Facets["category_id"]; ok && f.Terms != nil {
		for _, term := range f.Terms.Terms() {
			facets.Categories = append(facets.Categories, FacetCount{Value: term.Term, Count: term.Count})
		}
	}

	if f, ok := result.Facets["subcategory_id"]; ok && f.Terms != nil {
		for _, term := range f.Terms.Terms() {
			facets.Subcategories = append(facets.Subcategories, FacetCount{Value: term.Term, Count: term.Count})
		}
	}

	return facets
}
