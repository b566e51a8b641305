package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-dealer-assistant/internal/services"
	"github.com/tbourn/go-dealer-assistant/internal/utils"
)

// ListRecords godoc
// @ID          listRecords
// @Summary     Search a data table
// @Description Lists SKUs, claims, sales or dealers whose searchable fields contain any word of q.
// @Tags        Records
// @Produce     json
//
// @Param       kind   path   string  true  "Table"  Enums(skus, claims, sales, dealers)
// @Param       q      query  string  false "Search words"  example(Chennai)
// @Param       limit  query  int     false "Max rows"  minimum(1) maximum(50) default(50)
//
// @Success     200  {object} services.RecordPage
// @Failure     400  {object} handlers.ErrorResponse "Unknown table"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /records/{kind} [get]
func (h *Handlers) ListRecords(c *gin.Context) {
	limit := utils.AtoiDefault(c.Query("limit"), 0)
	page, err := h.recSvc.Search(c.Request.Context(), c.Param("kind"), c.Query("q"), limit)
	if err != nil {
		if errors.Is(err, services.ErrUnknownKind) {
			fail(c, http.StatusBadRequest, ErrCodeUnknownKind, "kind must be one of skus, claims, sales, dealers")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, page)
}
