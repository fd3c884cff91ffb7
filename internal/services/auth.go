package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yungbote/foodgram-backend/internal/data/repos"
	types "github.com/yungbote/foodgram-backend/internal/domain"
	"github.com/yungbote/foodgram-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/foodgram-backend/internal/pkg/errors"
	"github.com/yungbote/foodgram-backend/internal/pkg/validation"
	"github.com/yungbote/foodgram-backend/internal/platform/apierr"
	"github.com/yungbote/foodgram-backend/internal/platform/ctxutil"
	"github.com/yungbote/foodgram-backend/internal/platform/logger"
)

type JWTClaims struct {
	jwt.RegisteredClaims
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AuthService interface {
	Login(dbc dbctx.Context, in LoginInput) (string, error)
	Logout(dbc dbctx.Context) error
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	PurgeExpiredTokens(dbc dbctx.Context) (int64, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo
	jwtSecretKey  string
	accessTTL     time.Duration
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	userTokenRepo repos.UserTokenRepo,
	jwtSecretKey string,
	accessTTL time.Duration,
) AuthService {
	return &authService{
		db:            db,
		log:           log.With("service", "AuthService"),
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		jwtSecretKey:  jwtSecretKey,
		accessTTL:     accessTTL,
	}
}

var errInvalidCredentials = apierr.BadRequest("invalid_credentials",
	errors.New("unable to log in with provided credentials"))

func (as *authService) Login(dbc dbctx.Context, in LoginInput) (string, error) {
	in.Email = normalizeEmail(in.Email)
	if verr := validation.Struct(&in); verr != nil {
		return "", verr
	}
	user, err := as.userRepo.GetByEmail(dbc, in.Email)
	if err != nil {
		return "", fmt.Errorf("load user by email: %w", err)
	}
	if user == nil || !CheckPassword(user.Password, in.Password) {
		as.log.Debug("Login rejected", "email", in.Email)
		return "", errInvalidCredentials
	}

	now := time.Now().UTC()
	tok, err := as.generateAccessToken(user, now)
	if err != nil {
		return "", fmt.Errorf("generate access token: %w", err)
	}
	row := &types.UserToken{
		UserID:      user.ID,
		AccessToken: tok,
		ExpiresAt:   now.Add(as.accessTTL),
	}
	if _, err := as.userTokenRepo.Create(dbc, []*types.UserToken{row}); err != nil {
		return "", fmt.Errorf("create user token: %w", err)
	}
	as.log.Info("User logged in", "user_id", user.ID)
	return tok, nil
}

func (as *authService) Logout(dbc dbctx.Context) error {
	rd := ctxutil.GetRequestData(dbc.Ctx)
	if rd == nil || rd.TokenString == "" {
		return pkgerrors.ErrUnauthorized
	}
	if err := as.userTokenRepo.FullDeleteByAccessTokens(dbc, []string{rd.TokenString}); err != nil {
		return fmt.Errorf("delete user token: %w", err)
	}
	as.log.Info("User logged out", "user_id", rd.UserID)
	return nil
}

func (as *authService) generateAccessToken(user *types.User, now time.Time) (string, error) {
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}

// SetContextFromToken validates the JWT and its server-side row, then attaches
// the caller to ctx. Any failure is ErrUnauthorized.
func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, pkgerrors.ErrUnauthorized
	}
	parsedToken, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.jwtSecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return ctx, fmt.Errorf("%w: parse token: %v", pkgerrors.ErrUnauthorized, err)
	}
	claims, ok := parsedToken.Claims.(*JWTClaims)
	if !ok || !parsedToken.Valid {
		return ctx, fmt.Errorf("%w: invalid or expired token", pkgerrors.ErrUnauthorized)
	}
	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || userID == 0 {
		return ctx, fmt.Errorf("%w: invalid subject", pkgerrors.ErrUnauthorized)
	}

	row, err := as.userTokenRepo.GetByAccessToken(dbctx.Context{Ctx: ctx}, tokenString)
	if err != nil {
		return ctx, fmt.Errorf("load user token: %w", err)
	}
	if row == nil || row.UserID != uint(userID) {
		return ctx, fmt.Errorf("%w: token revoked", pkgerrors.ErrUnauthorized)
	}
	if !row.ExpiresAt.After(time.Now()) {
		return ctx, fmt.Errorf("%w: token expired", pkgerrors.ErrUnauthorized)
	}

	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{
		TokenString: tokenString,
		UserID:      uint(userID),
	}), nil
}

func (as *authService) PurgeExpiredTokens(dbc dbctx.Context) (int64, error) {
	n, err := as.userTokenRepo.FullDeleteExpired(dbc, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("purge expired tokens: %w", err)
	}
	as.log.Info("Expired tokens purged", "count", n)
	return n, nil
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.accessTTL
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// normalizeEmail trims and lowercases the domain part.
func normalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at+1] + strings.ToLower(email[at+1:])
}
