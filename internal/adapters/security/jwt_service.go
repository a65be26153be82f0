package security

import (
	"ColorPredict/internal/core/domain"
	"ColorPredict/internal/core/ports"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

const (
	issuer         = "colorpredict"
	audienceAdmin  = "admin-api"
	audienceAction = "action-link"
	minSecretBytes = 32
)

// adminClaims back the bearer tokens of the admin HTTP API.
type adminClaims struct {
	jwt.RegisteredClaims
}

// actionClaims back the token embedded in approve/reject links.
type actionClaims struct {
	jwt.RegisteredClaims
	Action         string `json:"act"`
	VerificationID int64  `json:"vid"`
	ChatID         int64  `json:"cid"`
}

// jwtService implements the TokenPort interface using HMAC-signed JWTs.
type jwtService struct {
	secret  []byte
	linkTTL time.Duration
	now     func() time.Time
	log     zerolog.Logger
}

var _ ports.TokenPort = (*jwtService)(nil) // Ensure compliance

// NewJWTService creates a new token service.
func NewJWTService(secret []byte, linkTTL time.Duration, baseLogger *zerolog.Logger) (ports.TokenPort, error) {
	if len(secret) < minSecretBytes {
		return nil, fmt.Errorf("jwt secret must be at least %d bytes", minSecretBytes)
	}
	if linkTTL <= 0 {
		return nil, errors.New("action link ttl must be positive")
	}

	log := baseLogger.With().Str("component", "token_service").Logger()
	log.Info().Dur("link_ttl", linkTTL).Msg("Token service initialized")

	return &jwtService{secret: secret, linkTTL: linkTTL, now: time.Now, log: log}, nil
}

func (s *jwtService) IssueAdminToken(subject string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("admin token subject is required")
	}
	now := s.now()
	claims := adminClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{audienceAdmin},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *jwtService) VerifyAdminToken(token string) (string, error) {
	claims := &adminClaims{}
	if err := s.parse(token, claims, audienceAdmin); err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (s *jwtService) IssueActionLink(c ports.ActionLinkClaims) (string, error) {
	now := s.now()
	claims := actionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{audienceAction},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.linkTTL)),
		},
		Action:         string(c.Action),
		VerificationID: c.VerificationID,
		ChatID:         c.ChatID,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *jwtService) VerifyActionLink(token string) (*ports.ActionLinkClaims, error) {
	claims := &actionClaims{}
	if err := s.parse(token, claims, audienceAction); err != nil {
		return nil, err
	}
	kind, err := domain.ParseActionKind(claims.Action)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthorized, err)
	}
	return &ports.ActionLinkClaims{
		Action:         kind,
		VerificationID: claims.VerificationID,
		ChatID:         claims.ChatID,
	}, nil
}

func (s *jwtService) parse(token string, claims jwt.Claims, audience string) error {
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		s.log.Warn().Err(err).Str("audience", audience).Msg("Rejected token")
		return fmt.Errorf("%w: %w", domain.ErrUnauthorized, err)
	}
	return nil
}
