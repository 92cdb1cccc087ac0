package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"pdf-service/internal/infra/logging"
)

const (
	labelInvalidInput  = "Invalid input"
	labelRenderFailure = "PDF generation failed"

	genericRenderMessage = "An unexpected error occurred while generating the PDF"
)

// APIError is an error with a client-facing label and message.
type APIError struct {
	Status  int
	Label   string
	Message string
}

func (e *APIError) Error() string { return e.Message }

// StatusCode returns the HTTP status the error maps to.
func (e *APIError) StatusCode() int { return e.Status }

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func invalidInput(msg string) *APIError {
	return &APIError{Status: fiber.StatusBadRequest, Label: labelInvalidInput, Message: msg}
}

func renderFailure(err error) *APIError {
	msg := err.Error()
	if msg == "" {
		msg = genericRenderMessage
	}
	return &APIError{Status: fiber.StatusInternalServerError, Label: labelRenderFailure, Message: msg}
}

// ErrorHandler renders every error as a flat {error, message} JSON body.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	body := errorResponse{Error: http.StatusText(code), Message: "Internal Server Error"}

	var apiErr *APIError
	var fe *fiber.Error
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Status
		body = errorResponse{Error: apiErr.Label, Message: apiErr.Message}
	case errors.As(err, &fe):
		code = fe.Code
		body = errorResponse{Error: http.StatusText(code), Message: fe.Message}
	}

	logging.Warn("Request failed", "path", c.Path(), "status", code, "message", body.Message)
	return c.Status(code).JSON(body)
}
