package rest

import (
	"errors"
	"strings"

	"github.com/dmitrijs2005/postboard/internal/common"
	"github.com/gofiber/fiber/v2"
)

const (
	msgNotAuthenticated = "You are not authenticated!"
	msgAuthFailed       = "Authentication failed"
	msgNotAuthorized    = "Not authorized"
	msgPostNotFound     = "Post not found"
	msgInternal         = "Internal server error"
)

// handleError renders every error as {"message": ...}. fiber.Errors carry
// their own status and message; anything else is an unexpected 500.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := msgInternal

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		message = fiberErr.Message
	} else {
		s.logger.Error(c.UserContext(), "unhandled error", "route", c.Route().Path, "error", err)
	}

	return c.Status(code).JSON(fiber.Map{"message": message})
}

// classify maps service errors shared by several routes to HTTP errors.
// Unrecognised errors are logged and become a 500 carrying failMsg.
func (s *Server) classify(c *fiber.Ctx, err error, failMsg string) error {
	switch {
	case errors.Is(err, common.ErrorValidation):
		return fiber.NewError(fiber.StatusBadRequest, validationMessage(err))
	case errors.Is(err, common.ErrorNotAuthorizedOrNotFound):
		return fiber.NewError(fiber.StatusUnauthorized, msgNotAuthorized)
	case errors.Is(err, common.ErrInvalidToken):
		return fiber.NewError(fiber.StatusUnauthorized, msgNotAuthenticated)
	}

	s.logger.Error(c.UserContext(), failMsg, "route", c.Route().Path, "error", err)
	return fiber.NewError(fiber.StatusInternalServerError, failMsg)
}

// validationMessage is the text after "validation error: ", wherever the
// sentinel sits in the wrap chain.
func validationMessage(err error) string {
	_, msg, ok := strings.Cut(err.Error(), common.ErrorValidation.Error()+": ")
	if !ok || msg == "" {
		return common.ErrorValidation.Error()
	}
	return msg
}
