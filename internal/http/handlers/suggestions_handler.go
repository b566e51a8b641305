package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-dealer-assistant/internal/search"
	"github.com/tbourn/go-dealer-assistant/internal/utils"
)

const (
	defaultSuggestions = 5
	maxSuggestions     = 10
)

// SuggestionsResponse lists ranked canned queries.
type SuggestionsResponse struct {
	Suggestions []search.Result `json:"suggestions"`
}

// Suggestions godoc
// @ID          suggestions
// @Summary     Suggest canned queries
// @Description Ranks the common queries by word overlap with q. An empty q returns the first k common queries.
// @Tags        Suggestions
// @Produce     json
// @Param       q  query  string  false "Partial query"  example(pending claims)
// @Param       k  query  int     false "Max results"  minimum(1) maximum(10) default(5)
// @Success     200  {object} handlers.SuggestionsResponse
// @Router      /suggestions [get]
func (h *Handlers) Suggestions(c *gin.Context) {
	k := utils.AtoiDefault(c.Query("k"), defaultSuggestions)
	if k < 1 {
		k = 1
	}
	if k > maxSuggestions {
		k = maxSuggestions
	}

	out := h.suggests.TopK(strings.TrimSpace(c.Query("q")), k)
	if out == nil {
		out = []search.Result{}
	}
	ok(c, http.StatusOK, SuggestionsResponse{Suggestions: out})
}
