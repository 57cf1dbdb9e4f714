package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	Username     string `json:"username,omitempty"`
	IsAdmin      bool   `json:"is_admin,omitempty"`
}

var nowFunc = time.Now // mockable

// AdminClaims returns the claims of a fresh admin token. origIat keeps the
// original issue time across refreshes.
func (s *Server) AdminClaims(username string, origIat ...int64) *Claims {
	now := nowFunc()
	nownix := now.Unix()

	var oriat int64
	if len(origIat) > 0 {
		oriat = origIat[0]
	} else {
		oriat = nownix
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    s.deps.Conf.AppName,
			Subject:   username,
			Audience:  "Censo",
			ExpiresAt: now.Add(s.deps.Conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		Username:     username,
		IsAdmin:      true,
	}
}

// GenerateToken generates a signed JWT token string representing the Claims.
func (s *Server) GenerateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(s.jwtConf.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(s.jwtConf.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func (s *Server) getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(s.jwtConf.ContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// adminMiddleware only lets admin tokens through while the admin session is open.
func (s *Server) adminMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		claims, err := s.getContextClaims(ctx)
		if err != nil {
			return errors.Wrap(err, "getting context claims")
		}
		if !claims.IsAdmin {
			return errHttpForbidden
		}
		if !s.deps.Session.IsAuthenticated(ctx.Request().Context()) {
			return errUnauthorized
		}
		return next(ctx)
	}
}

func (s *Server) refreshToken(ctx echo.Context) (string, error) {
	claims, err := s.getContextClaims(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context claims")
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(s.deps.Conf.Server.JWTRefreshExpirationDelta)
	if nowFunc().After(expTime) {
		return "", errRefreshExpired
	}

	token, err := s.GenerateToken(s.AdminClaims(claims.Username, claims.OrigIssuedAt))
	return token, errors.Wrap(err, "generating token")
}
