package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/nyaa-go/internal/app"
	"github.com/yourusername/nyaa-go/internal/domain"
)

// maxPagesPerRequest bounds the pages parameter of a search
const maxPagesPerRequest = 5

// SearchHandler handles search requests
type SearchHandler struct {
	search   *app.SearchManager
	defaults domain.SearchConfig
	logger   *zap.Logger
}

// NewSearchHandler creates a new search handler. defaults fill the
// parameters a request leaves out.
func NewSearchHandler(search *app.SearchManager, defaults domain.SearchConfig, logger *zap.Logger) *SearchHandler {
	return &SearchHandler{
		search:   search,
		defaults: defaults,
		logger:   logger,
	}
}

// SearchResponse is the body of a successful search
type SearchResponse struct {
	Query    domain.QuerySpec `json:"query"`
	Attempts int              `json:"attempts,omitempty"`
	Pages    []*domain.Page   `json:"pages"`
}

// parseQuery builds a query from the request parameters
func (h *SearchHandler) parseQuery(c *gin.Context) (domain.QuerySpec, error) {
	q := h.defaults.DefaultQuery(c.Query("q"))

	if v := c.Query("category"); v != "" {
		q.Category = domain.LookupCategory(v)
	}
	if v := c.Query("filter"); v != "" {
		q.Filter = domain.Filter(v)
	}
	if v := c.Query("sort"); v != "" {
		q.Sort = domain.SortKey(v)
	}
	if v := c.Query("direction"); v != "" {
		q.Direction = domain.SortDir(v)
	}
	if v := c.Query("source"); v != "" {
		q.Source = domain.SourceKind(v)
	}
	if v := c.Query("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil {
			return q, err
		}
		q.Page = page
	}

	q = q.Normalized()
	return q, q.Validate()
}

// Search handles GET /api/v1/search
func (h *SearchHandler) Search(c *gin.Context) {
	q, err := h.parseQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pages := 1
	if v := c.Query("pages"); v != "" {
		pages, err = strconv.Atoi(v)
		if err != nil || pages < 1 || pages > maxPagesPerRequest {
			c.JSON(http.StatusBadRequest, gin.H{"error": "pages must be between 1 and " + strconv.Itoa(maxPagesPerRequest)})
			return
		}
	}

	if pages == 1 {
		page, attempts, err := h.search.Search(c.Request.Context(), q)
		if err != nil {
			h.logger.Warn("Search failed", zap.String("term", q.Term), zap.Int("attempts", attempts), zap.Error(err))
			abortWithCause(c, err)
			return
		}
		c.JSON(http.StatusOK, SearchResponse{Query: q, Attempts: attempts, Pages: []*domain.Page{page}})
		return
	}

	results, err := h.search.SearchPages(c.Request.Context(), q, pages)
	if err != nil {
		h.logger.Warn("Multi-page search failed", zap.String("term", q.Term), zap.Int("pages", pages), zap.Error(err))
		abortWithCause(c, err)
		return
	}
	c.JSON(http.StatusOK, SearchResponse{Query: q, Pages: results})
}

// Options handles GET /api/v1/search/options
func (h *SearchHandler) Options(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"sources":    h.search.Sources(),
		"categories": domain.Categories,
		"filters":    domain.Filters,
		"sort_keys":  domain.SortKeys,
	})
}
