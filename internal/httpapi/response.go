// Package httpapi implements spec.md §6's HTTP API surface with gin-gonic,
// grounded on the teacher's internal/api package (APIHandler dependency
// bag, JSON response envelope, c.ShouldBindJSON validation idiom) adapted
// from the campaign/persona domain to sites/competitors/trends/audits.
package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agenceeditorial/auditengine/internal/errs"
)

// errorEnvelope is the JSON body of every non-2xx response, matching the
// teacher's {error: {kind, message}} shape used across internal/api.
type errorEnvelope struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func writeError(c *gin.Context, err error) {
	kind, status, msg := classify(err)
	c.AbortWithStatusJSON(status, gin.H{"error": errorEnvelope{Kind: kind, Message: msg}})
}

func classify(err error) (kind string, status int, message string) {
	var ce *errs.ClassifiedError
	if errors.As(err, &ce) {
		switch ce.Kind {
		case errs.KindInputValidation:
			return string(ce.Kind), http.StatusBadRequest, ce.Error()
		case errs.KindMissingPrerequisite:
			return string(ce.Kind), http.StatusFailedDependency, ce.Error()
		case errs.KindTransientExternal:
			return string(ce.Kind), http.StatusBadGateway, ce.Error()
		case errs.KindPermanentExternal:
			return string(ce.Kind), http.StatusBadGateway, ce.Error()
		case errs.KindDataShape:
			return string(ce.Kind), http.StatusNotFound, ce.Error()
		case errs.KindConcurrency:
			return string(ce.Kind), http.StatusConflict, ce.Error()
		default:
			return string(ce.Kind), http.StatusInternalServerError, ce.Error()
		}
	}
	return "internal_error", http.StatusInternalServerError, err.Error()
}
