package http

import (
	"strings"
	"time"

	"github.com/thirdway-labs/modelctl/common/mlog"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// TokenContextValue is a wrapper type used to keep Context.Locals safe.
type TokenContextValue string

// TokenKind distinguishes the four bearer tokens this service issues: a
// session token minted at login, a short-lived upload token scoped to a
// single artifact upload, a cache-insert token scoped to the semantic
// response cache's insert endpoint, and an email-verification token.
type TokenKind string

const (
	TokenKindSession TokenKind = "session"
	TokenKindUpload  TokenKind = "upload"
	TokenKindCache   TokenKind = "cache_insert"
	TokenKindVerify  TokenKind = "email_verify"
)

// Claims is the claim set embedded in every token this service issues. Which
// fields are populated depends on Kind: a session token carries UserID; an
// upload token carries UserID, ModelName and Kind=upload; a cache
// token carries Kind=cache_insert and Scope.
type Claims struct {
	jwt.RegisteredClaims
	Kind      TokenKind `json:"kind"`
	UserID    string    `json:"uid,omitempty"`
	ModelName string    `json:"model,omitempty"`
	Scope     string    `json:"scope,omitempty"`
}

func getTokenHeader(c *fiber.Ctx) string {
	splitToken := strings.SplitN(c.Get(fiber.HeaderAuthorization), "Bearer ", 2)
	if len(splitToken) == 2 {
		return strings.TrimSpace(splitToken[1])
	}

	return ""
}

// JWTMiddleware verifies HMAC-signed bearer tokens minted by this service's
// own token service (see the identity component) rather than delegating
// verification to an external identity provider.
type JWTMiddleware struct {
	secret []byte
	kind   TokenKind
}

// NewJWTMiddleware creates a JWTMiddleware that only accepts tokens of kind.
func NewJWTMiddleware(secret []byte, kind TokenKind) *JWTMiddleware {
	return &JWTMiddleware{secret: secret, kind: kind}
}

// Protect verifies the bearer token's signature, expiry, and kind, then
// stores the parsed claims in the request's locals under "claims".
func (m *JWTMiddleware) Protect() fiber.Handler {
	return func(c *fiber.Ctx) error {
		l := mlog.NewLoggerFromContext(c.UserContext())
		l.Debug("JWTMiddleware:Protect")

		tokenString := getTokenHeader(c)
		if len(tokenString) == 0 {
			return Unauthorized(c, "1013", "Missing Token", "Must provide a bearer token")
		}

		claims := &Claims{}

		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrTokenSignatureInvalid
			}

			return m.secret, nil
		})
		if err != nil || !token.Valid {
			l.Debugf("invalid token: %v", err)
			return Unauthorized(c, "1013", "Invalid Token", "The provided token is invalid, malformed, or expired.")
		}

		if claims.Kind != m.kind {
			return Unauthorized(c, "1013", "Wrong Token Kind", "This endpoint does not accept this token kind.")
		}

		c.Locals(string(TokenContextValue("claims")), claims)

		return c.Next()
	}
}

// ClaimsFromContext retrieves the claims stored by JWTMiddleware.Protect.
func ClaimsFromContext(c *fiber.Ctx) (*Claims, bool) {
	claims, ok := c.Locals(string(TokenContextValue("claims"))).(*Claims)
	return claims, ok
}

// IssueToken signs and returns a token of the given kind, expiring at exp,
// using the HS256 algorithm.
func IssueToken(secret []byte, kind TokenKind, exp time.Time, set func(*Claims)) (string, error) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
		},
		Kind: kind,
	}

	if set != nil {
		set(claims)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(secret)
}
