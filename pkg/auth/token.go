package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/VINCENT-bot354/safaribytes/pkg/config"
	"github.com/VINCENT-bot354/safaribytes/pkg/enums"
)

// clockSkew tolerates small drift between the identity service and us.
const clockSkew = 30 * time.Second

var (
	signingMethod = jwt.SigningMethodHS256

	ErrMisconfigured = errors.New("jwt config incomplete")
	ErrNoIdentity    = errors.New("token carries no usable identity")
)

// AccessTokenPayload is what MintAccessToken signs. JTI defaults to a random
// UUID.
type AccessTokenPayload struct {
	UserID uint64
	Role   enums.ActorRole
	Name   string
	JTI    string
}

// AccessTokenClaims is the decoded bearer token. UserID is the customer id
// for customers and the staff id otherwise.
type AccessTokenClaims struct {
	UserID uint64          `json:"user_id"`
	Role   enums.ActorRole `json:"role"`
	Name   string          `json:"name,omitempty"`
	jwt.RegisteredClaims
}

func checkConfig(cfg config.JWTConfig, minting bool) error {
	switch {
	case cfg.Secret == "":
		return fmt.Errorf("%w: secret is required", ErrMisconfigured)
	case cfg.Issuer == "":
		return fmt.Errorf("%w: issuer is required", ErrMisconfigured)
	case minting && cfg.ExpirationMinutes <= 0:
		return fmt.Errorf("%w: expiration minutes must be positive", ErrMisconfigured)
	}
	return nil
}

// MintAccessToken signs an HS256 token valid for cfg.ExpirationMinutes from
// now. Only customer, staff and admin may hold tokens.
func MintAccessToken(cfg config.JWTConfig, now time.Time, payload AccessTokenPayload) (string, error) {
	if err := checkConfig(cfg, true); err != nil {
		return "", err
	}
	if payload.UserID == 0 || !isTokenRole(payload.Role) {
		return "", fmt.Errorf("%w: user %d role %q", ErrNoIdentity, payload.UserID, payload.Role)
	}
	jti := strings.TrimSpace(payload.JTI)
	if jti == "" {
		jti = uuid.NewString()
	}

	claims := AccessTokenClaims{
		UserID: payload.UserID,
		Role:   payload.Role,
		Name:   strings.TrimSpace(payload.Name),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   fmt.Sprintf("%s:%d", payload.Role, payload.UserID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(cfg.ExpirationMinutes) * time.Minute)),
			ID:        jti,
		},
	}
	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

// ParseAccessToken verifies signature, issuer and expiry, then requires a
// non-zero user id with a token-holding role.
func ParseAccessToken(cfg config.JWTConfig, raw string) (*AccessTokenClaims, error) {
	if err := checkConfig(cfg, false); err != nil {
		return nil, err
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(clockSkew),
	)
	claims := &AccessTokenClaims{}
	if _, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(cfg.Secret), nil
	}); err != nil {
		return nil, err
	}
	if claims.UserID == 0 || !isTokenRole(claims.Role) {
		return nil, ErrNoIdentity
	}
	return claims, nil
}

// system and gateway are internal actors and never hold tokens.
func isTokenRole(role enums.ActorRole) bool {
	return role == enums.ActorRoleCustomer || role.IsFulfillment()
}
