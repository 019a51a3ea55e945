package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"threatdash/internal/domain/apperr"
	"threatdash/internal/domain/models"
	"threatdash/internal/domain/validation"
	"threatdash/pkg/logger"
)

// Claims are the JWT claims issued at login. The subject is the user id.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim
func (c *Claims) UserID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}

// TokenRevoker remembers logged-out token ids until they expire
type TokenRevoker interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// AuthConfig configures token issuance
type AuthConfig struct {
	Secret     string
	Issuer     string
	Expiration time.Duration
}

// AuthResult is a signed token and the user it was issued for
type AuthResult struct {
	Token string
	User  *models.User
}

// AuthService registers users and issues and verifies bearer tokens
type AuthService struct {
	users   Store[*models.User]
	cfg     AuthConfig
	revoker TokenRevoker // nil means logout is client-side only
	cost    int
	now     func() time.Time
	logger  *logger.Logger
}

// NewAuthService creates a new AuthService. revoker may be nil.
func NewAuthService(users Store[*models.User], cfg AuthConfig, revoker TokenRevoker, log *logger.Logger) *AuthService {
	if cfg.Expiration <= 0 {
		cfg.Expiration = 7 * 24 * time.Hour
	}
	return &AuthService{
		users:   users,
		cfg:     cfg,
		revoker: revoker,
		cost:    bcrypt.DefaultCost,
		now:     func() time.Time { return time.Now().UTC() },
		logger:  log.WithComponent("auth"),
	}
}

// Register creates an account and logs it in
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*AuthResult, error) {
	req.Normalize()
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	for _, u := range s.users.List(ctx) {
		if strings.EqualFold(u.Email, req.Email) {
			return nil, apperr.Validation("Email already registered")
		}
		if strings.EqualFold(u.Username, req.Username) {
			return nil, apperr.Validation("Username already taken")
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, apperr.Internal(err, "Error registering user")
	}

	now := s.now()
	user, err := s.users.Create(ctx, &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		LastLogin:    &now,
	})
	if err != nil {
		return nil, apperr.Storage(err, "Error registering user")
	}

	token, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("user_id", user.ID).Msg("user registered")
	return &AuthResult{Token: token, User: user}, nil
}

// Login verifies credentials and issues a token
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*AuthResult, error) {
	req.Normalize()
	if req.Email == "" || req.Password == "" {
		return nil, apperr.Validation("Please provide email and password")
	}

	var user *models.User
	for _, u := range s.users.List(ctx) {
		if strings.EqualFold(u.Email, req.Email) {
			user = u
			break
		}
	}
	if user == nil {
		return nil, apperr.Unauthorized("Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperr.Unauthorized("Invalid credentials")
	}

	now := s.now()
	user.LastLogin = &now
	if err := s.users.Update(ctx, user); err != nil {
		s.logger.Warn().Err(err).Int64("user_id", user.ID).Msg("failed to record last login")
	}

	token, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}

// Me returns the user a verified token belongs to
func (s *AuthService) Me(ctx context.Context, claims *Claims) (*models.User, error) {
	id, err := claims.UserID()
	if err != nil {
		return nil, apperr.Unauthorized("Invalid token")
	}
	user, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, apperr.NotFound("User not found")
	}
	return user, nil
}

// Logout revokes the token id until the token would have expired anyway
func (s *AuthService) Logout(ctx context.Context, claims *Claims) error {
	if s.revoker == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	ttl := claims.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.revoker.Revoke(ctx, claims.ID, ttl); err != nil {
		return apperr.Internal(err, "Error logging out")
	}
	return nil
}

func (s *AuthService) issue(user *models.User) (string, error) {
	now := s.now()
	claims := Claims{
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(user.ID, 10),
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.Expiration)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", apperr.Internal(err, "Error issuing token")
	}
	return token, nil
}

// Verify parses and validates a bearer token
func (s *AuthService) Verify(ctx context.Context, raw string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	}
	if s.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.cfg.Issuer))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(s.cfg.Secret), nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.Unauthorized("Token expired")
		}
		return nil, apperr.Unauthorized("Invalid token")
	}

	if s.revoker != nil && claims.ID != "" {
		revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
		if err != nil {
			s.logger.Warn().Err(err).Msg("revocation check failed")
		} else if revoked {
			return nil, apperr.Unauthorized("Token revoked")
		}
	}
	return claims, nil
}
