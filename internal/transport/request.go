package transport

import (
	"net/http"

	"kitchen-store/internal/middleware"

	"go.uber.org/zap"
)

// decodeRequest decodes and validates the JSON body into v. On failure it
// writes the error response and returns false.
func decodeRequest(w http.ResponseWriter, r *http.Request, v interface{}, logger *zap.Logger) bool {
	if err := middleware.DecodeAndValidate(r, v); err != nil {
		logger.Debug("Request validation failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return false
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// SuccessResponse is the body of write operations that return no resource
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
