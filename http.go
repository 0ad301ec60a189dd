package blog

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
)

// RouteAuthenticator guards protected routes. Whatever the internal rejection
// reason (missing, expired, tampered, deleted user), the presenter sees one
// uniform unauthorized response; distinctions survive only in logs.
type RouteAuthenticator struct {
	auth   Authenticator
	cfg    Config
	Logger Logger
}

func NewHTTPAuthenticator(auther Authenticator, cfg Config) (*RouteAuthenticator, error) {
	if auther == nil {
		return nil, errors.New("authenticator is required", errors.CategoryBadInput)
	}

	return &RouteAuthenticator{
		auth:   auther,
		cfg:    cfg,
		Logger: defLogger{},
	}, nil
}

func (a *RouteAuthenticator) WithLogger(logger Logger) *RouteAuthenticator {
	if logger != nil {
		a.Logger = logger
	}
	return a
}

// ProtectedRoute authenticates the presented credential and stores the
// resolved identity in both fiber locals and the request context.
func (a *RouteAuthenticator) ProtectedRoute() fiber.Handler {
	headerName, authScheme := parseTokenLookup(a.cfg.GetTokenLookup())

	return func(c *fiber.Ctx) error {
		presented := extractCredential(c, headerName, authScheme)

		identity, err := a.auth.Authenticate(c.UserContext(), presented)
		if err != nil {
			a.logRejection(c, err)
			return UnauthorizedResponse(c)
		}

		c.Locals(a.cfg.GetContextKey(), identity)
		c.SetUserContext(WithIdentityContext(c.UserContext(), identity))

		return c.Next()
	}
}

func (a *RouteAuthenticator) logRejection(c *fiber.Ctx, err error) {
	var richErr *errors.Error
	if errors.As(err, &richErr) {
		if richErr.Category == errors.CategoryInternal {
			a.Logger.Error("authentication failed on internal error",
				"path", c.Path(), "error", richErr.Message)
			return
		}
		a.Logger.Info("authentication rejected",
			"path", c.Path(), "text_code", richErr.TextCode)
		return
	}

	a.Logger.Info("authentication rejected", "path", c.Path(), "error", err)
}

// IdentityFromRouter returns the identity the middleware stored for this request
func IdentityFromRouter(c *fiber.Ctx, key string) (Identity, bool) {
	raw := c.Locals(key)
	if raw == nil {
		return nil, false
	}
	identity, ok := raw.(Identity)
	return identity, ok
}

// UnauthorizedResponse writes the uniform rejection body. It never says
// whether the credential was absent, expired, or belonged to a deleted user.
func UnauthorizedResponse(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"success": false,
		"message": "invalid or expired credential",
	})
}

// parseTokenLookup understands "header:<name>" lookup declarations
func parseTokenLookup(lookup string) (headerName, authScheme string) {
	headerName = fiber.HeaderAuthorization

	parts := strings.SplitN(lookup, ":", 2)
	if len(parts) == 2 && parts[0] == "header" && parts[1] != "" {
		headerName = parts[1]
	}

	if strings.EqualFold(headerName, fiber.HeaderAuthorization) {
		authScheme = "Bearer"
	}

	return headerName, authScheme
}

func extractCredential(c *fiber.Ctx, headerName, authScheme string) string {
	value := strings.TrimSpace(c.Get(headerName))
	if value == "" || authScheme == "" {
		return value
	}

	if len(value) > len(authScheme) && strings.EqualFold(value[:len(authScheme)], authScheme) {
		return strings.TrimSpace(value[len(authScheme):])
	}

	return ""
}
