package utils

import "github.com/gofiber/fiber/v2"

// ErrorBody is the error half of the response envelope.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Envelope is the uniform JSON response shape.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

// Respond sends a JSON response with the specified status code.
func Respond(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(data)
}

// Success sends a successful enveloped response.
func Success(c *fiber.Ctx, data interface{}) error {
	return Respond(c, fiber.StatusOK, Envelope{Success: true, Data: data})
}

// Created sends a successful enveloped response with status 201.
func Created(c *fiber.Ctx, data interface{}) error {
	return Respond(c, fiber.StatusCreated, Envelope{Success: true, Data: data})
}

// Fail sends an enveloped error response.
func Fail(c *fiber.Ctx, status int, code, message string) error {
	return Respond(c, status, Envelope{Success: false, Error: &ErrorBody{Code: code, Message: message}})
}

// BadRequest sends a VALIDATION_ERROR response with status 400.
func BadRequest(c *fiber.Ctx, message string) error {
	return Fail(c, fiber.StatusBadRequest, "VALIDATION_ERROR", message)
}

// Unauthorized sends an error response with status 401.
func Unauthorized(c *fiber.Ctx, message string) error {
	return Fail(c, fiber.StatusUnauthorized, "UNAUTHORIZED", message)
}

// Forbidden sends an error response with status 403.
func Forbidden(c *fiber.Ctx, message string) error {
	return Fail(c, fiber.StatusForbidden, "FORBIDDEN", message)
}

// NotFound sends an error response with status 404.
func NotFound(c *fiber.Ctx, message string) error {
	return Fail(c, fiber.StatusNotFound, "NOT_FOUND", message)
}

// Unprocessable sends an error response with status 422.
func Unprocessable(c *fiber.Ctx, code, message string) error {
	return Fail(c, fiber.StatusUnprocessableEntity, code, message)
}

// Conflict sends an error response with status 409.
func Conflict(c *fiber.Ctx, code, message string) error {
	return Fail(c, fiber.StatusConflict, code, message)
}

// InternalError sends an error response with status 500.
func InternalError(c *fiber.Ctx, code, message string) error {
	return Fail(c, fiber.StatusInternalServerError, code, message)
}
