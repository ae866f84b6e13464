package v1

import (
	"errors"
	"io"
	"net/http"
	"time"

	"beta-signup/internal/delivery/http/response"
	"beta-signup/internal/domain"
	"beta-signup/pkg/apperror"
	"beta-signup/pkg/i18n"

	"github.com/gin-gonic/gin"
)

type FormHandler struct {
	signupUC domain.SignupUsecase
	now      func() time.Time
}

// FormView is the JSON form state together with the copy for its language.
type FormView struct {
	*domain.FormState
	CelebrationRemainingMS int64             `json:"celebration_remaining_ms"`
	Translations           map[string]string `json:"translations"`
}

// NewFormHandler registers the JSON form API
func NewFormHandler(r *gin.RouterGroup, submit gin.HandlerFunc, signupUC domain.SignupUsecase) {
	handler := &FormHandler{
		signupUC: signupUC,
		now:      time.Now,
	}

	form := r.Group("/form")
	form.GET("", handler.Get)
	form.PATCH("", handler.Edit)
	form.POST("/submit", submit, handler.Submit)
	form.POST("/language", handler.ToggleLanguage)
}

func (h *FormHandler) view(state *domain.FormState) FormView {
	return FormView{
		FormState:              state,
		CelebrationRemainingMS: state.CelebrationRemaining(h.now()).Milliseconds(),
		Translations:           i18n.Table(state.Language),
	}
}

// Get godoc
// @Summary      Get form state
// @Description  Current signup form state of the caller's session.
// @Tags         form
// @Produce      json
// @Success      200  {object}  response.Response{data=FormView}
// @Router       /form [get]
func (h *FormHandler) Get(c *gin.Context) {
	state, err := h.signupUC.State(c.Request.Context())
	if err != nil {
		c.Error(apperror.Internal(err))
		return
	}
	response.Success(c, http.StatusOK, "Form state", h.view(state))
}

// Edit godoc
// @Summary      Edit a form field
// @Description  Stores one field and re-validates it. Email is validated on every edit.
// @Tags         form
// @Accept       json
// @Produce      json
// @Param        edit  body      domain.EditRequest  true  "Field and value"
// @Success      200   {object}  response.Response{data=FormView}
// @Failure      400   {object}  response.Response
// @Failure      403   {object}  response.Response
// @Router       /form [patch]
func (h *FormHandler) Edit(c *gin.Context) {
	var req domain.EditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest(err.Error()))
		return
	}

	field, ok := domain.ParseField(req.Field)
	if !ok {
		c.Error(apperror.BadRequest("Unknown field: " + req.Field))
		return
	}

	state, err := h.signupUC.Edit(c.Request.Context(), field, req.Value)
	if err != nil {
		c.Error(apperror.Internal(err))
		return
	}
	response.Success(c, http.StatusOK, "Field updated", h.view(state))
}

// Submit godoc
// @Summary      Submit the form
// @Description  Applies the supplied fields, validates and sends the form to the beta tester backend.
// @Description  Fields left out of the body keep their current value.
// @Tags         form
// @Accept       json
// @Produce      json
// @Param        form  body      domain.SubmitInput  false  "Fields to apply before submitting"
// @Success      200   {object}  response.Response{data=FormView}
// @Failure      409   {object}  response.Response{data=FormView}
// @Failure      422   {object}  response.Response{data=FormView}
// @Failure      429   {object}  response.Response
// @Failure      502   {object}  response.Response{data=FormView}
// @Router       /form/submit [post]
func (h *FormHandler) Submit(c *gin.Context) {
	var input domain.SubmitInput
	// An empty body, chunked or not, submits the stored fields as they are.
	if c.Request.Body != nil && c.Request.Body != http.NoBody {
		if err := c.ShouldBindJSON(&input); err != nil && !errors.Is(err, io.EOF) {
			c.Error(apperror.BadRequest(err.Error()))
			return
		}
	}

	state, err := h.signupUC.Submit(c.Request.Context(), &input)
	switch {
	case err == nil:
		response.Success(c, http.StatusOK, i18n.Sprintf(state.Language, i18n.KeySuccess), h.view(state))
	case errors.Is(err, domain.ErrInvalidSubmission):
		h.fail(c, http.StatusUnprocessableEntity, firstNonEmpty(state.EmailError, state.PhoneError, state.RemarksError), state)
	case errors.Is(err, domain.ErrSubmissionFailed):
		h.fail(c, submissionStatus(err), state.ErrorMessage, state)
	case errors.Is(err, domain.ErrSubmissionInFlight):
		h.fail(c, http.StatusConflict, state.ErrorMessage, state)
	default:
		c.Error(apperror.Internal(err))
	}
}

// ToggleLanguage godoc
// @Summary      Toggle the form language
// @Description  Switches the session between zh and en.
// @Tags         form
// @Produce      json
// @Success      200  {object}  response.Response{data=FormView}
// @Router       /form/language [post]
func (h *FormHandler) ToggleLanguage(c *gin.Context) {
	state, err := h.signupUC.ToggleLanguage(c.Request.Context())
	if err != nil {
		c.Error(apperror.Internal(err))
		return
	}
	response.Success(c, http.StatusOK, "Language updated", h.view(state))
}

func (h *FormHandler) fail(c *gin.Context, code int, message string, state *domain.FormState) {
	response.Fail(c, code, message, h.view(state))
}

// submissionStatus is 409 when the backend refused the record and 502 when
// it failed or could not be reached.
func submissionStatus(err error) int {
	var statusErr *domain.BackendStatusError
	if errors.As(err, &statusErr) && statusErr.Code < http.StatusInternalServerError {
		return http.StatusConflict
	}
	return http.StatusBadGateway
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
