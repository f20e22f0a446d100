package rest

import (
	"time"

	"github.com/dmitrijs2005/postboard/internal/common"
	"github.com/dmitrijs2005/postboard/internal/netx"
	"github.com/dmitrijs2005/postboard/internal/server/auth"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

const claimsLocal = "claims"

// requireAuth admits the request only with a valid bearer token. The
// verified claims are stored in Locals and in the user context.
func (s *Server) requireAuth(c *fiber.Ctx) error {
	token, ok := netx.ParseBearer(c.Get(common.AuthorizationHeaderName))
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, msgNotAuthenticated)
	}

	claims, err := s.verifier.Verify(token)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, msgNotAuthenticated)
	}

	c.Locals(claimsLocal, claims)
	c.SetUserContext(auth.WithClaims(c.UserContext(), claims))
	return c.Next()
}

// ownerID is the verified account id set by requireAuth.
func ownerID(c *fiber.Ctx) (string, error) {
	claims, ok := auth.ClaimsFromContext(c.UserContext())
	if !ok {
		return "", fiber.NewError(fiber.StatusUnauthorized, msgNotAuthenticated)
	}
	return claims.AccountID, nil
}

// requestLogger logs one line per request. Errors are rendered here so the
// logged status is the one the client sees.
func (s *Server) requestLogger(c *fiber.Ctx) error {
	start := time.Now()

	if err := c.Next(); err != nil {
		if herr := s.handleError(c, err); herr != nil {
			_ = c.SendStatus(fiber.StatusInternalServerError)
		}
	}

	rid, _ := c.Locals(requestid.ConfigDefault.ContextKey).(string)
	s.logger.Info(c.UserContext(), "request",
		"method", c.Method(),
		"path", c.Path(),
		"status", c.Response().StatusCode(),
		"latency", time.Since(start),
		"request_id", rid,
	)
	return nil
}
