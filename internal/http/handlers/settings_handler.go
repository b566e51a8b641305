package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-dealer-assistant/internal/services"
)

// SetModelKeyRequest carries a new remote model credential.
type SetModelKeyRequest struct {
	APIKey string `json:"api_key" binding:"required" example:"sk-..."`
}

// GetModelKey godoc
// @ID          getModelKey
// @Summary     Model credential status
// @Description Reports whether a remote model credential is configured, masked.
// @Tags        Settings
// @Produce     json
// @Success     200  {object} services.KeyStatus
// @Router      /settings/model-key [get]
func (h *Handlers) GetModelKey(c *gin.Context) {
	ok(c, http.StatusOK, h.setSvc.Status())
}

// PutModelKey godoc
// @ID          putModelKey
// @Summary     Configure the model credential
// @Description Stores the credential; later queries use the remote model.
// @Tags        Settings
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.SetModelKeyRequest  true  "Credential"
// @Success     200  {object} services.KeyStatus
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /settings/model-key [put]
func (h *Handlers) PutModelKey(c *gin.Context) {
	var req SetModelKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "api_key required")
		return
	}
	st, err := h.setSvc.SetKey(c.Request.Context(), req.APIKey)
	if err != nil {
		if errors.Is(err, services.ErrEmptyKey) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "api_key required")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeSettingsFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, st)
}

// DeleteModelKey godoc
// @ID          deleteModelKey
// @Summary     Remove the model credential
// @Description Later queries are answered by the local summarizer.
// @Tags        Settings
// @Success     204  {string} string "No Content"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /settings/model-key [delete]
func (h *Handlers) DeleteModelKey(c *gin.Context) {
	if err := h.setSvc.ClearKey(c.Request.Context()); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeSettingsFailed, err.Error())
		return
	}
	noContent(c)
}
