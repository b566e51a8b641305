package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-dealer-assistant/internal/domain"
	"github.com/tbourn/go-dealer-assistant/internal/http/middleware"
	"github.com/tbourn/go-dealer-assistant/internal/services"
)

// AnalyticsSummary godoc
// @ID          analyticsSummary
// @Summary     Role-scoped dashboard summary
// @Description Dealers see their own dealer id, sales reps their region and admins the whole network.
// @Tags        Analytics
// @Produce     json
//
// @Param       X-User-Name    header  string  false "Display name"   example(Raj)
// @Param       X-User-Role    header  string  false "dealer, sales_rep or admin"  example(dealer)
// @Param       X-Dealer-ID    header  string  false "Dealer id (required for dealers)"  example(D001)
// @Param       X-User-Region  header  string  false "Region (required for sales reps)"  example(Chennai)
//
// @Success     200  {object} services.Summary
// @Failure     400  {object} handlers.ErrorResponse "Dealer id or region missing"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /analytics/summary [get]
func (h *Handlers) AnalyticsSummary(c *gin.Context) {
	who := middleware.CallerFrom(c)
	switch {
	case who.Role == domain.RoleDealer && who.DealerID == "":
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "X-Dealer-ID required for dealer role")
		return
	case who.Role == domain.RoleSalesRep && who.Region == "":
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "X-User-Region required for sales_rep role")
		return
	}

	sum, err := h.anSvc.Summary(c.Request.Context(), services.Viewer{
		Name:     who.Name,
		Role:     who.Role,
		DealerID: who.DealerID,
		Region:   who.Region,
	})
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeAnalyticsFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, sum)
}
