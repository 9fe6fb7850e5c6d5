package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/agendafacil/booking-api/pkg/errors"
)

// Response wraps all API responses
type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Kind    string      `json:"kind,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Status: "success", Data: data})
}

// RespondWithCreated sends a 201 response
func RespondWithCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Status: "success", Data: data})
}

// RespondWithError sends an error response. AppErrors keep their kind
// and message; anything else is surfaced as a generic internal error
// with the detail logged server-side only.
func RespondWithError(c *gin.Context, err error) {
	if appErr, ok := err.(*errors.AppError); ok {
		if appErr.Err != nil {
			log.Error().Err(appErr.Err).
				Str("kind", string(appErr.Kind)).
				Str("path", c.Request.URL.Path).
				Msg(appErr.Message)
		}
		c.JSON(appErr.StatusCode(), Response{
			Status:  "error",
			Kind:    string(appErr.Kind),
			Message: appErr.Message,
		})
		return
	}

	log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("unhandled error")
	c.JSON(http.StatusInternalServerError, Response{
		Status:  "error",
		Message: "internal server error",
	})
}
