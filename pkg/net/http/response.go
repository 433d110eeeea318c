// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package http

import (
	"github.com/gofiber/fiber/v2"
)

// ResponseError is the JSON body of a resilience error answer.
type ResponseError struct {
	Code    string `json:"code"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// BadRequest sends an HTTP 400 response.
func BadRequest(c *fiber.Ctx, code, title, message string) error {
	return JSONResponseError(c, fiber.StatusBadRequest, ResponseError{Code: code, Title: title, Message: message})
}

// ServiceUnavailable sends an HTTP 503 response with a Retry-After hint.
func ServiceUnavailable(c *fiber.Ctx, code, title, message, retryAfter string) error {
	if retryAfter == "" {
		retryAfter = defaultRetryAfter
	}

	c.Set(headerRetryAfter, retryAfter)

	return JSONResponseError(c, fiber.StatusServiceUnavailable, ResponseError{Code: code, Title: title, Message: message})
}

// GatewayTimeout sends an HTTP 504 response.
func GatewayTimeout(c *fiber.Ctx, code, title, message string) error {
	return JSONResponseError(c, fiber.StatusGatewayTimeout, ResponseError{Code: code, Title: title, Message: message})
}

// JSONResponseError writes err with status.
func JSONResponseError(c *fiber.Ctx, status int, err ResponseError) error {
	if reqID := c.Get(headerRequestID); reqID != "" {
		c.Set(headerRequestID, reqID)
	}

	c.Set(fiber.HeaderContentType, contentTypeJSON)

	return c.Status(status).JSON(err)
}
