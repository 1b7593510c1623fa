// Package passport issues and validates the signed credential handed to an
// approved user. The token string is what the portal encodes into its QR
// code.
package passport

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"trustgate/internal/scoring"
	id "trustgate/pkg/domain"
	dErrors "trustgate/pkg/domain-errors"
)

const audience = "trustgate-portal"

// Claims carried by a passport token.
type Claims struct {
	UserID       string `json:"user_id"`
	SubmissionID string `json:"submission_id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	TrustScore   int    `json:"trust_score"`
	Tier         int    `json:"tier"`
	jwt.RegisteredClaims
}

// Subject describes the approved user a passport is issued to.
type Subject struct {
	UserID       id.UserID
	SubmissionID id.SubmissionID
	Name         string
	Email        string
	TrustScore   int
}

// Token is a signed passport.
type Token struct {
	Value     string    `json:"token"`
	ID        string    `json:"id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Issuer signs passports with HS256.
type Issuer struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
}

func NewIssuer(signingKey, issuer string, ttl time.Duration) *Issuer {
	return &Issuer{signingKey: []byte(signingKey), issuer: issuer, ttl: ttl}
}

// Issue signs a passport for sub valid from now for the configured TTL.
func (i *Issuer) Issue(sub Subject, now time.Time) (*Token, error) {
	if sub.UserID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "passport subject requires a user id")
	}
	jti := uuid.NewString()
	expiresAt := now.Add(i.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:       sub.UserID.String(),
		SubmissionID: sub.SubmissionID.String(),
		Name:         sub.Name,
		Email:        sub.Email,
		TrustScore:   sub.TrustScore,
		Tier:         int(scoring.TierFor(sub.TrustScore)),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub.UserID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    i.issuer,
			Audience:  []string{audience},
			ID:        jti,
		},
	})

	signed, err := token.SignedString(i.signingKey)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign passport")
	}
	return &Token{Value: signed, ID: jti, IssuedAt: now, ExpiresAt: expiresAt}, nil
}

// Validate checks signature, issuer, audience and lifetime as of now.
func (i *Issuer) Validate(tokenString string, now time.Time) (*Claims, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "passport token is required")
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrTokenUnverifiable
			}
			return i.signingKey, nil
		},
		jwt.WithIssuer(i.issuer),
		jwt.WithAudience(audience),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "passport has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid passport")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid passport claims")
	}
	return claims, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
