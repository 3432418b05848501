package handler

import (
	"errors"
	"net/http"

	"circdesk/internal/http-api/service"

	"github.com/gin-gonic/gin"
)

// respondError maps a service error kind to an HTTP status. Business-rule
// refusals are 409s; everything unrecognized is a 500.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrAuthenticationFailed):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrAuthorizationFailed):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrCheckoutNotAllowed),
		errors.Is(err, service.ErrRenewalNotAllowed),
		errors.Is(err, service.ErrBookAlreadyReturned),
		errors.Is(err, service.ErrFinePaymentNotAllowed),
		errors.Is(err, service.ErrFineWaivementNotAllowed),
		errors.Is(err, service.ErrHoldChangeNotAllowed):
		status = http.StatusConflict
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
