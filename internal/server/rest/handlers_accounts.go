package rest

import (
	"errors"

	"github.com/dmitrijs2005/postboard/internal/common"
	"github.com/gofiber/fiber/v2"
)

type credentialsRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func (s *Server) signup(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}

	account, err := s.accounts.Register(c.UserContext(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return fiber.NewError(fiber.StatusConflict, "Email is already registered")
		}
		return s.classify(c, err, "Creating account failed!")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User created",
		"account": account,
	})
}

func (s *Server) login(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, msgAuthFailed)
	}

	res, err := s.accounts.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			return fiber.NewError(fiber.StatusUnauthorized, msgAuthFailed)
		}
		return s.classify(c, err, msgAuthFailed)
	}

	return c.JSON(fiber.Map{
		"token":     res.Token,
		"expiresIn": int64(res.ExpiresIn.Seconds()),
		"accountId": res.AccountID,
	})
}
