package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/agenceeditorial/auditengine/internal/errs"
)

// getExecution reports the generic lifecycle state of any workflow
// execution, regardless of workflow_type — the one route that isn't
// scoped to a single domain object.
func (h *Handler) getExecution(c *gin.Context) {
	id, err := uuid.Parse(c.Param("execution_id"))
	if err != nil {
		writeError(c, errs.New(errs.KindInputValidation, "invalid execution_id", err))
		return
	}
	exec, err := h.Executions.GetExecution(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, exec)
}
