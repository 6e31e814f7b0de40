package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/stripe/stripe-go/v76"
)

// ErrorHandler renders every unhandled error as {"error":{"message":...}}.
// Provider errors expose the provider's message; everything else is a 500
// unless it is a *fiber.Error (404 for unknown routes and the like).
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()

	var fiberErr *fiber.Error
	var stripeErr *stripe.Error
	switch {
	case errors.As(err, &fiberErr):
		code = fiberErr.Code
		message = fiberErr.Message
	case errors.As(err, &stripeErr):
		if stripeErr.Msg != "" {
			message = stripeErr.Msg
		}
	}

	if code >= fiber.StatusInternalServerError {
		fiberlog.Errorf("%s %s failed: %v", c.Method(), c.Path(), err)
	}
	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{"message": message},
	})
}
