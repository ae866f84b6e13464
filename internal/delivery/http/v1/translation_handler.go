package v1

import (
	"net/http"

	"beta-signup/internal/delivery/http/response"
	"beta-signup/pkg/apperror"
	"beta-signup/pkg/i18n"

	"github.com/gin-gonic/gin"
)

type TranslationHandler struct{}

func NewTranslationHandler(r *gin.RouterGroup) {
	handler := &TranslationHandler{}
	r.GET("/translations/:lang", handler.Get)
}

// Get godoc
// @Summary      Get a translation table
// @Description  The flat page copy table for zh or en.
// @Tags         translations
// @Produce      json
// @Param        lang  path      string  true  "Language"  Enums(zh, en)
// @Success      200   {object}  response.Response{data=map[string]string}
// @Failure      404   {object}  response.Response
// @Router       /translations/{lang} [get]
func (h *TranslationHandler) Get(c *gin.Context) {
	lang, ok := i18n.Parse(c.Param("lang"))
	if !ok {
		c.Error(apperror.NotFound("Unsupported language: " + c.Param("lang")))
		return
	}
	response.Success(c, http.StatusOK, "Translations", i18n.Table(lang))
}
