package http

import "github.com/gofiber/fiber/v2"

// OK writes a 200 response with the given payload.
func OK(c *fiber.Ctx, payload any) error {
	return c.Status(fiber.StatusOK).JSON(payload)
}

// Created writes a 201 response with the given payload.
func Created(c *fiber.Ctx, payload any) error {
	return c.Status(fiber.StatusCreated).JSON(payload)
}

// Accepted writes a 202 response with the given payload, used for operations
// that were enqueued rather than completed synchronously.
func Accepted(c *fiber.Ctx, payload any) error {
	return c.Status(fiber.StatusAccepted).JSON(payload)
}

// NoContent writes a 204 response with no body.
func NoContent(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}

// BadRequest writes a 400 response carrying err as the response body.
func BadRequest(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(err)
}

// Unauthorized writes a 401 response.
func Unauthorized(c *fiber.Ctx, code, title, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(ResponseError{
		Code:    fiber.StatusUnauthorized,
		Title:   title,
		Message: message,
	}.withBusinessCode(code))
}

// Forbidden writes a 403 response.
func Forbidden(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusForbidden).JSON(ResponseError{
		Code:    fiber.StatusForbidden,
		Title:   "Forbidden",
		Message: message,
	})
}

// NotFound writes a 404 response.
func NotFound(c *fiber.Ctx, code, title, message string) error {
	return c.Status(fiber.StatusNotFound).JSON(ResponseError{
		Code:    fiber.StatusNotFound,
		Title:   title,
		Message: message,
	}.withBusinessCode(code))
}

// Conflict writes a 409 response.
func Conflict(c *fiber.Ctx, code, title, message string) error {
	return c.Status(fiber.StatusConflict).JSON(ResponseError{
		Code:    fiber.StatusConflict,
		Title:   title,
		Message: message,
	}.withBusinessCode(code))
}

// UnprocessableEntity writes a 422 response.
func UnprocessableEntity(c *fiber.Ctx, code, title, message string) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(ResponseError{
		Code:    fiber.StatusUnprocessableEntity,
		Title:   title,
		Message: message,
	}.withBusinessCode(code))
}

// TooManyRequests writes a 429 response, used by the quota/license checks.
func TooManyRequests(c *fiber.Ctx, code, title, message string) error {
	return c.Status(fiber.StatusTooManyRequests).JSON(ResponseError{
		Code:    fiber.StatusTooManyRequests,
		Title:   title,
		Message: message,
	}.withBusinessCode(code))
}

// ServiceUnavailable writes a 503 response, used when the deployed-replica
// write coordinator has no reachable writer lease.
func ServiceUnavailable(c *fiber.Ctx, code, title, message string) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(ResponseError{
		Code:    fiber.StatusServiceUnavailable,
		Title:   title,
		Message: message,
	}.withBusinessCode(code))
}

// InternalServerError writes a 500 response.
func InternalServerError(c *fiber.Ctx, code, title, message string) error {
	return c.Status(fiber.StatusInternalServerError).JSON(ResponseError{
		Code:    fiber.StatusInternalServerError,
		Title:   title,
		Message: message,
	}.withBusinessCode(code))
}

// JSONResponseError writes err using its own HTTP status code.
func JSONResponseError(c *fiber.Ctx, err ResponseError) error {
	status := err.Code
	if status < 100 || status > 599 {
		status = fiber.StatusInternalServerError
	}

	return c.Status(status).JSON(err)
}

// businessCode is carried alongside the HTTP status so clients can match on
// the stable error code rather than the message text.
func (r ResponseError) withBusinessCode(code string) ResponseError {
	r.BusinessCode = code
	return r
}
