// internal/handlers/handlers.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/javajoker/imi-campaigns/internal/i18n"
	"github.com/javajoker/imi-campaigns/internal/middleware"
	"github.com/javajoker/imi-campaigns/internal/services"
	"github.com/javajoker/imi-campaigns/internal/utils"
)

// requireActor returns the authenticated caller or writes a 401.
func requireActor(c *gin.Context) (services.Actor, bool) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
	}
	return actor, ok
}

// pathID parses a uuid path parameter or writes a 400 naming resource.
func pathID(c *gin.Context, param, resource string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid "+resource+" ID", nil)
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON decodes the body into req. An empty body leaves req zeroed;
// field level validation is left to the services.
func bindJSON(c *gin.Context, req interface{}) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(req); err != nil {
		lang := utils.GetLangFromContext(c)
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return false
	}
	return true
}

func message(c *gin.Context, key string) string {
	return i18n.T(utils.GetLangFromContext(c), key)
}
