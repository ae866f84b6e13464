package v1

import (
	"embed"
	"errors"
	"html/template"
	"math"
	"net/http"
	"time"

	"beta-signup/internal/delivery/http/middleware"
	"beta-signup/internal/domain"
	"beta-signup/pkg/apperror"
	"beta-signup/pkg/i18n"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templateFS embed.FS

// LoadTemplates parses the embedded page templates.
func LoadTemplates() *template.Template {
	return template.Must(template.ParseFS(templateFS, "templates/*.html"))
}

type PageHandler struct {
	signupUC domain.SignupUsecase
	now      func() time.Time
}

type pageData struct {
	Lang         string
	Copy         i18n.Copy
	State        *domain.FormState
	CSRFToken    string
	RefreshAfter int
}

// signupForm is the HTML form body. Missing fields keep their current value.
type signupForm struct {
	Email   *string `form:"email"`
	Phone   *string `form:"phone"`
	Remarks *string `form:"remarks"`
}

// NewPageHandler registers the server-rendered signup page.
func NewPageHandler(r gin.IRoutes, submit gin.HandlerFunc, signupUC domain.SignupUsecase) {
	handler := &PageHandler{
		signupUC: signupUC,
		now:      time.Now,
	}

	r.GET("/", handler.Show)
	r.POST("/", submit, handler.Submit)
	r.POST("/language", handler.ToggleLanguage)
}

func (h *PageHandler) Show(c *gin.Context) {
	state, err := h.signupUC.State(c.Request.Context())
	if err != nil {
		c.Error(apperror.Internal(err))
		return
	}

	data := pageData{
		Lang:      string(state.Language),
		Copy:      i18n.For(state.Language),
		State:     state,
		CSRFToken: c.GetString(middleware.CSRFContextKey),
	}
	// Re-render when the celebration is due to end.
	if d := state.CelebrationRemaining(h.now()); d > 0 {
		data.RefreshAfter = int(math.Ceil(d.Seconds()))
	}

	c.HTML(http.StatusOK, "index.html", data)
}

// Submit handles the plain form post and redirects back to the page, where
// the outcome is rendered from the session.
func (h *PageHandler) Submit(c *gin.Context) {
	var form signupForm
	if err := c.ShouldBind(&form); err != nil {
		c.Error(apperror.BadRequest("Invalid form data"))
		return
	}

	_, err := h.signupUC.Submit(c.Request.Context(), &domain.SubmitInput{
		Email:   form.Email,
		Phone:   form.Phone,
		Remarks: form.Remarks,
	})
	switch {
	case err == nil,
		errors.Is(err, domain.ErrInvalidSubmission),
		errors.Is(err, domain.ErrSubmissionFailed),
		errors.Is(err, domain.ErrSubmissionInFlight):
		c.Redirect(http.StatusSeeOther, "/")
	default:
		c.Error(apperror.Internal(err))
	}
}

func (h *PageHandler) ToggleLanguage(c *gin.Context) {
	if _, err := h.signupUC.ToggleLanguage(c.Request.Context()); err != nil {
		c.Error(apperror.Internal(err))
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}
