package auth

import (
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	apperrors "housemarket/internal/errors"
)

const (
	tokenContextKey  = "user"
	callerContextKey = "callerID"
)

// Guard returns middleware that admits only requests bearing a valid,
// unrevoked access token. Every rejection produces the same 401 body.
func Guard(jwtService *JWTService, tokens TokenStoreInterface) echo.MiddlewareFunc {
	verify := echojwt.WithConfig(echojwt.Config{
		SigningKey:    jwtService.Secret(),
		SigningMethod: jwt.SigningMethodHS256.Alg(),
		ContextKey:    tokenContextKey,
		NewClaimsFunc: func(echo.Context) jwt.Claims {
			return new(Claims)
		},
		ErrorHandler: func(echo.Context, error) error {
			return unauthenticated()
		},
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return verify(func(c echo.Context) error {
			claims := ClaimsFrom(c)
			if claims == nil || claims.UserID == "" || claims.ID == "" || !claims.IsAccess() {
				return unauthenticated()
			}
			revoked, err := tokens.IsAccessTokenBlacklisted(c.Request().Context(), claims.ID)
			if err != nil || revoked {
				return unauthenticated()
			}
			c.Set(callerContextKey, claims.UserID)
			return next(c)
		})
	}
}

// ClaimsFrom returns the verified token claims, or nil outside the guard.
func ClaimsFrom(c echo.Context) *Claims {
	token, ok := c.Get(tokenContextKey).(*jwt.Token)
	if !ok || token == nil {
		return nil
	}
	claims, _ := token.Claims.(*Claims)
	return claims
}

// CallerID returns the authenticated user id set by Guard.
func CallerID(c echo.Context) string {
	id, _ := c.Get(callerContextKey).(string)
	return id
}

func unauthenticated() error {
	return apperrors.ToHTTP(apperrors.Unauthenticated(""))
}
