package middleware

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remnika/wallet/internal/auth"
	"github.com/remnika/wallet/internal/identity"
)

func TestJWTAuth(t *testing.T) {
	repo := identity.NewMemoryRepository()
	user := identity.User{ID: "11111111-1111-1111-1111-111111111111", TokenVersion: 2, CreatedAt: time.Now()}
	require.NoError(t, repo.Create(context.Background(), user))

	tokens := auth.NewTokens("secret", time.Minute)
	app := fiber.New()
	app.Get("/me", JWTAuth(tokens, repo), func(c *fiber.Ctx) error {
		uid, _ := c.Locals("user_id").(string)
		return c.SendString(uid)
	})

	call := func(header string) int {
		req := httptest.NewRequest(fiber.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set(fiber.HeaderAuthorization, header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	valid, err := tokens.Issue(user)
	require.NoError(t, err)
	stale, err := tokens.Issue(identity.User{ID: user.ID, TokenVersion: 1})
	require.NoError(t, err)
	unknown, err := tokens.Issue(identity.User{ID: "22222222-2222-2222-2222-222222222222", TokenVersion: 2})
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, call("Bearer "+valid))
	assert.Equal(t, fiber.StatusUnauthorized, call(""))
	assert.Equal(t, fiber.StatusUnauthorized, call("Bearer garbage"))
	assert.Equal(t, fiber.StatusUnauthorized, call("Bearer "+stale))
	assert.Equal(t, fiber.StatusUnauthorized, call("Bearer "+unknown))
}
