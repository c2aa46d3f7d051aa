package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/avast/epstats/pkg/apierrors"
)

// apiError is the uniform error body every failed handler returns.
type apiError struct {
	status  int
	code    string
	message string
	field   string
}

// mapError classifies err by kind: ParseError and
// ValidationError surface as 422, CheckError never reaches the transport
// (the orchestrator already omits it from the result), EvaluationError and
// UpstreamError surface as 500.
func mapError(err error) apiError {
	switch e := err.(type) {
	case *apierrors.ParseError:
		return apiError{status: http.StatusUnprocessableEntity, code: e.Code, message: e.Error()}
	case *apierrors.ValidationError:
		return apiError{status: http.StatusUnprocessableEntity, code: e.Code, message: e.Error(), field: e.Field}
	case *apierrors.EvaluationError:
		return apiError{status: http.StatusInternalServerError, code: e.Code, message: e.Error()}
	case *apierrors.UpstreamError:
		return apiError{status: http.StatusInternalServerError, code: e.Code, message: e.Error()}
	default:
		return apiError{status: http.StatusInternalServerError, code: "EVALUATION_ERROR", message: err.Error()}
	}
}

// writeError renders an apiError as the JSON body {"error":{"code",
// "message","field"}}.
func writeError(c *gin.Context, e apiError) {
	body := gin.H{"error": gin.H{"code": e.code, "message": e.message}}
	if e.field != "" {
		body["error"].(gin.H)["field"] = e.field
	}
	c.JSON(e.status, body)
}
