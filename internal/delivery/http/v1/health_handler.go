package v1

import (
	"net/http"

	"beta-signup/internal/delivery/http/response"
	"beta-signup/internal/usecase"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	healthUC usecase.HealthUsecase
}

func NewHealthHandler(r *gin.RouterGroup, healthUC usecase.HealthUsecase) {
	handler := &HealthHandler{healthUC: healthUC}
	r.GET("/health", handler.Check)
}

// Check godoc
// @Summary      Health check
// @Description  Reports the session store and beta tester backend. A down backend only degrades the service.
// @Tags         health
// @Produce      json
// @Success      200  {object}  response.Response{data=map[string]string}
// @Failure      503  {object}  response.Response{data=map[string]string}
// @Router       /health [get]
func (h *HealthHandler) Check(c *gin.Context) {
	status, healthy := h.healthUC.Check(c.Request.Context())
	if !healthy {
		response.Fail(c, http.StatusServiceUnavailable, "System unavailable", status)
		return
	}
	response.Success(c, http.StatusOK, "System operational", status)
}
