package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/quickcart/quickcart-api/internal/models"
)

// Envelope is the JSON shape of every response. Error responses carry
// success=false and error=true; the unverified-account rejection additionally
// reports the per-channel verification state.
type Envelope struct {
	Success              bool                       `json:"success"`
	Message              string                     `json:"message,omitempty"`
	Error                bool                       `json:"error,omitempty"`
	Data                 interface{}                `json:"data,omitempty"`
	RequiresVerification bool                       `json:"requiresVerification,omitempty"`
	VerificationStatus   *models.VerificationStatus `json:"verificationStatus,omitempty"`
}

func respondOK(c echo.Context, message string, data interface{}) error {
	return c.JSON(http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

func respondError(c echo.Context, err error) error {
	var unverified *models.UnverifiedAccountError
	var httpErr *echo.HTTPError

	switch {
	case errors.As(err, &unverified):
		return c.JSON(http.StatusBadRequest, Envelope{
			Error:                true,
			Message:              unverified.Error(),
			RequiresVerification: true,
			VerificationStatus:   &unverified.Status,
		})
	case errors.As(err, &httpErr):
		return err
	case errors.Is(err, models.ErrValidation):
		return envelopeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrInvalidSignature):
		return envelopeError(c, http.StatusBadRequest, "Invalid Signature.")
	case errors.Is(err, models.ErrAccessDenied):
		return envelopeError(c, http.StatusForbidden, "Access denied")
	case errors.Is(err, models.ErrNotFound):
		return envelopeError(c, http.StatusNotFound, "Order not found")
	case errors.Is(err, models.ErrUpstream):
		return envelopeError(c, http.StatusBadGateway, "Unable to create order, please try again later.")
	default:
		c.Logger().Errorf("internal error: %v", err)
		return envelopeError(c, http.StatusInternalServerError, "Server Error")
	}
}

func envelopeError(c echo.Context, code int, message string) error {
	return c.JSON(code, Envelope{Error: true, Message: message})
}
