// Package auth issues access tokens and rotates hashed refresh tokens.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/models"
	"storefront/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrEmailTaken         = errors.New("email already registered")
)

type Claims struct {
	UserID primitive.ObjectID
	Role   string
	Email  string
}

func (c Claims) IsAdmin() bool {
	return c.Role == models.RoleAdmin
}

type Tokens struct {
	AccessToken    string             `json:"accessToken"`
	RefreshToken   string             `json:"refreshToken"`
	RefreshTokenID primitive.ObjectID `json:"-"`
	ExpiresIn      int64              `json:"expiresIn"`
}

type Service struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	users      repository.Users
	tokens     repository.RefreshTokens
	now        func() time.Time
}

func NewService(store repository.Store, secret string, accessTTL, refreshTTL time.Duration) *Service {
	return &Service{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		users:      store.Users(),
		tokens:     store.RefreshTokens(),
		now:        time.Now,
	}
}

func (s *Service) AccessTTL() time.Duration  { return s.accessTTL }
func (s *Service) RefreshTTL() time.Duration { return s.refreshTTL }

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *Service) Register(ctx context.Context, name, email, password, phone string) (*models.User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	now := s.now()
	user := &models.User{
		Name:         strings.TrimSpace(name),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: hash,
		Phone:        strings.TrimSpace(phone),
		Role:         models.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return user, nil
}

func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *Service) IssueAccessToken(user models.User) (string, error) {
	claims := jwt.MapClaims{
		"userId": user.ID.Hex(),
		"role":   user.Role,
		"email":  user.Email,
		"exp":    s.now().Add(s.accessTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ParseAccessToken returns ErrTokenExpired for a well-signed but expired
// token so callers can attempt a silent refresh.
func (s *Service) ParseAccessToken(raw string) (*Claims, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	userIDValue, _ := claims["userId"].(string)
	userID, err := primitive.ObjectIDFromHex(strings.TrimSpace(userIDValue))
	if err != nil {
		return nil, ErrInvalidToken
	}
	role, _ := claims["role"].(string)
	email, _ := claims["email"].(string)
	return &Claims{UserID: userID, Role: role, Email: email}, nil
}

// IssuePair signs an access token and persists a new refresh token.
func (s *Service) IssuePair(ctx context.Context, user models.User) (*Tokens, error) {
	accessToken, err := s.IssueAccessToken(user)
	if err != nil {
		return nil, err
	}

	plain, err := generateRefreshString()
	if err != nil {
		return nil, err
	}
	now := s.now()
	refresh := &models.RefreshToken{
		UserID:    user.ID,
		TokenHash: hashToken(plain),
		ExpiresAt: now.Add(s.refreshTTL),
		CreatedAt: now,
	}
	if err := s.tokens.Create(ctx, refresh); err != nil {
		return nil, err
	}

	return &Tokens{
		AccessToken:    accessToken,
		RefreshToken:   plain,
		RefreshTokenID: refresh.ID,
		ExpiresIn:      int64(s.accessTTL.Seconds()),
	}, nil
}

// Rotate exchanges a refresh token for a new pair and revokes the old one.
func (s *Service) Rotate(ctx context.Context, plain string) (*Tokens, *models.User, error) {
	plain = strings.TrimSpace(plain)
	if plain == "" {
		return nil, nil, ErrInvalidToken
	}

	stored, err := s.tokens.FindActive(ctx, hashToken(plain))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrInvalidToken
		}
		return nil, nil, err
	}
	if stored.Expired(s.now()) {
		_ = s.tokens.Revoke(ctx, stored.ID, nil)
		return nil, nil, ErrTokenExpired
	}

	user, err := s.users.Get(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrInvalidToken
		}
		return nil, nil, err
	}

	tokens, err := s.IssuePair(ctx, *user)
	if err != nil {
		return nil, nil, err
	}
	if err := s.tokens.Revoke(ctx, stored.ID, &tokens.RefreshTokenID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// a concurrent rotation won; drop the pair we just minted
			_, _ = s.tokens.RevokeByHash(ctx, hashToken(tokens.RefreshToken))
			return nil, nil, ErrInvalidToken
		}
		return nil, nil, err
	}
	return tokens, user, nil
}

func (s *Service) Revoke(ctx context.Context, plain string) (bool, error) {
	plain = strings.TrimSpace(plain)
	if plain == "" {
		return false, nil
	}
	return s.tokens.RevokeByHash(ctx, hashToken(plain))
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func generateRefreshString() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
