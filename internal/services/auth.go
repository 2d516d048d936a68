package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yungbote/wellness-backend/internal/data/repos"
	types "github.com/yungbote/wellness-backend/internal/domain"
	"github.com/yungbote/wellness-backend/internal/platform/apierr"
	"github.com/yungbote/wellness-backend/internal/platform/ctxutil"
	"github.com/yungbote/wellness-backend/internal/platform/dbctx"
	"github.com/yungbote/wellness-backend/internal/platform/logger"
)

const (
	CodeUnauthorized       = "unauthorized"
	CodeInvalidCredentials = "invalid_credentials"
	CodeUserExists         = "user_exists"

	ScopeUser = "ROLE_USER"
)

var (
	errInvalidCredentials = errors.New("invalid email or password")
	errUserExists         = errors.New("a user with that email or username already exists")
	errInvalidToken       = errors.New("invalid or expired token")
	errNotRefreshable     = errors.New("token can no longer be refreshed")
)

type JWTClaims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

type TokenResult struct {
	Token         string `json:"token"`
	ExpiresIn     int64  `json:"expires_in"`
	Authenticated bool   `json:"authenticated"`
}

type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	FullName    string
	PhoneNumber string
}

// RevocationCache is a fast path in front of the invalidated_token table.
// A miss is not authoritative.
type RevocationCache interface {
	MarkRevoked(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// AuthObserver counts authentication outcomes.
type AuthObserver interface {
	IncAuthEvent(event, result string)
}

type AuthService interface {
	Register(dbc dbctx.Context, in RegisterInput) (*types.User, error)
	Login(dbc dbctx.Context, email, password string) (*TokenResult, error)
	Introspect(ctx context.Context, tokenString string) (bool, error)
	Refresh(dbc dbctx.Context, tokenString string) (*TokenResult, error)
	// Logout revokes the token attached to dbc.Ctx by SetContextFromToken.
	Logout(dbc dbctx.Context) error
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
	PurgeExpired(ctx context.Context) (int64, error)
}

type AuthConfig struct {
	SecretKey  string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	BcryptCost int
	Now        func() time.Time
	Observer   AuthObserver
}

type authService struct {
	db          *gorm.DB
	log         *logger.Logger
	userRepo    repos.UserRepo
	revokedRepo repos.InvalidatedTokenRepo
	cache       RevocationCache
	cfg         AuthConfig
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	revokedRepo repos.InvalidatedTokenRepo,
	cache RevocationCache,
	cfg AuthConfig,
) AuthService {
	serviceLog := log.With("service", "AuthService")
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.RefreshTTL < cfg.AccessTTL {
		cfg.RefreshTTL = cfg.AccessTTL
	}
	return &authService{
		db:          db,
		log:         serviceLog,
		userRepo:    userRepo,
		revokedRepo: revokedRepo,
		cache:       cache,
		cfg:         cfg,
	}
}

func (as *authService) Register(dbc dbctx.Context, in RegisterInput) (*types.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FullName = strings.TrimSpace(in.FullName)
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), as.cfg.BcryptCost)
	if err != nil {
		return nil, apierr.BadRequest(CodeValidation, fmt.Errorf("password: %w", err))
	}

	var created *types.User
	err = dbc.Conn(as.db).Transaction(func(tx *gorm.DB) error {
		inner := dbc.WithTx(tx)
		exists, err := as.userRepo.ExistsByEmailOrUsername(inner, in.Email, in.Username)
		if err != nil {
			return err
		}
		if exists {
			return repos.ErrUserExists
		}
		created, err = as.userRepo.Create(inner, &types.User{
			Username:    in.Username,
			Email:       in.Email,
			Password:    string(hash),
			FullName:    in.FullName,
			PhoneNumber: in.PhoneNumber,
			IsActive:    true,
		})
		return err
	})
	if err != nil {
		if errors.Is(err, repos.ErrUserExists) {
			as.observe("register", "conflict")
			return nil, apierr.Conflict(CodeUserExists, errUserExists)
		}
		as.log.Error("Failed to create user", "error", err)
		return nil, apierr.Internal(CodeStorageFault, errors.New("could not create account"))
	}
	as.observe("register", "ok")
	as.log.Info("User registered", "user_id", created.ID)
	return created, nil
}

func (as *authService) Login(dbc dbctx.Context, email, password string) (*TokenResult, error) {
	u, err := as.userRepo.GetByEmail(dbc, email)
	if err != nil {
		as.log.Error("Failed to load user for login", "error", err)
		return nil, apierr.Internal(CodeStorageFault, errors.New("could not sign in"))
	}
	if u == nil || !u.IsActive {
		as.observe("login", "rejected")
		return nil, apierr.Unauthorized(CodeInvalidCredentials, errInvalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		as.log.Debug("Password mismatch", "user_id", u.ID)
		as.observe("login", "rejected")
		return nil, apierr.Unauthorized(CodeInvalidCredentials, errInvalidCredentials)
	}
	as.observe("login", "ok")
	return as.issue(u.ID)
}

func (as *authService) Introspect(ctx context.Context, tokenString string) (bool, error) {
	if _, err := as.verify(ctx, tokenString, false); err != nil {
		if apierr.HasCode(err, CodeUnauthorized) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (as *authService) Refresh(dbc dbctx.Context, tokenString string) (*TokenResult, error) {
	claims, err := as.verify(dbc.Ctx, tokenString, true)
	if err != nil {
		return nil, err
	}
	refreshUntil := as.refreshableUntil(claims)
	if !as.cfg.Now().Before(refreshUntil) {
		return nil, apierr.Unauthorized(CodeUnauthorized, errNotRefreshable)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, apierr.Unauthorized(CodeUnauthorized, errInvalidToken)
	}

	var out *TokenResult
	err = dbc.Conn(as.db).Transaction(func(tx *gorm.DB) error {
		inner := dbc.WithTx(tx)
		u, err := as.userRepo.GetByID(inner, userID)
		if err != nil {
			return err
		}
		if u == nil || !u.IsActive {
			return apierr.Unauthorized(CodeUnauthorized, errInvalidToken)
		}
		if err := as.revokedRepo.Create(inner, &types.InvalidatedToken{ID: claims.ID, ExpiresAt: refreshUntil}); err != nil {
			return err
		}
		out, err = as.issue(u.ID)
		return err
	})
	if err != nil {
		if _, ok := apierr.As(err); ok {
			return nil, err
		}
		as.log.Error("Failed to refresh token", "error", err)
		return nil, apierr.Internal(CodeStorageFault, errors.New("could not refresh token"))
	}
	as.cacheRevocation(dbc.Ctx, claims.ID, refreshUntil)
	as.observe("refresh", "ok")
	return out, nil
}

func (as *authService) Logout(dbc dbctx.Context) error {
	rd := ctxutil.GetRequestData(dbc.Ctx)
	if rd == nil || rd.TokenString == "" {
		as.log.Warn("Request data not set in context")
		return apierr.Unauthorized(CodeUnauthorized, errInvalidToken)
	}
	claims, err := as.verify(dbc.Ctx, rd.TokenString, true)
	if err != nil {
		// Already revoked or unparseable: nothing left to invalidate.
		if apierr.HasCode(err, CodeUnauthorized) {
			return nil
		}
		return err
	}
	until := as.refreshableUntil(claims)
	if claims.ExpiresAt != nil && claims.ExpiresAt.Time.After(until) {
		until = claims.ExpiresAt.Time
	}
	if err := as.revokedRepo.Create(dbc, &types.InvalidatedToken{ID: claims.ID, ExpiresAt: until}); err != nil {
		as.log.Error("Failed to revoke token", "error", err)
		return apierr.Internal(CodeStorageFault, errors.New("could not sign out"))
	}
	as.cacheRevocation(dbc.Ctx, claims.ID, until)
	as.observe("logout", "ok")
	as.log.Info("User logged out", "user_id", rd.UserID)
	return nil
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	claims, err := as.verify(ctx, tokenString, false)
	if err != nil {
		return ctx, err
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, apierr.Unauthorized(CodeUnauthorized, fmt.Errorf("invalid subject in token: %w", err))
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{
		UserID:      userID,
		TokenID:     claims.ID,
		TokenString: tokenString,
	}), nil
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.cfg.AccessTTL
}

func (as *authService) PurgeExpired(ctx context.Context) (int64, error) {
	return as.revokedRepo.DeleteExpired(dbctx.Context{Ctx: ctx}, as.cfg.Now())
}

func (as *authService) issue(userID uuid.UUID) (*TokenResult, error) {
	now := as.cfg.Now()
	claims := JWTClaims{
		Scope: ScopeUser,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID.String(),
			Issuer:    as.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.cfg.AccessTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(as.cfg.SecretKey))
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &TokenResult{
		Token:         signed,
		ExpiresIn:     int64(as.cfg.AccessTTL / time.Second),
		Authenticated: true,
	}, nil
}

// verify parses and authenticates tokenString. With allowExpired the exp claim
// is not enforced, which refresh and logout need. Revoked tokens are rejected
// either way.
func (as *authService) verify(ctx context.Context, tokenString string, allowExpired bool) (*JWTClaims, error) {
	if tokenString == "" {
		return nil, apierr.Unauthorized(CodeUnauthorized, errInvalidToken)
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithTimeFunc(as.cfg.Now),
		jwt.WithIssuedAt(),
	}
	if as.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(as.cfg.Issuer))
	}
	claims := &JWTClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.cfg.SecretKey), nil
	}, opts...)
	if err != nil && !(allowExpired && errors.Is(err, jwt.ErrTokenExpired) && onlyExpired(err)) {
		as.log.Debug("Token rejected", "error", err)
		return nil, apierr.Unauthorized(CodeUnauthorized, errInvalidToken)
	}
	if claims.ID == "" || claims.IssuedAt == nil {
		return nil, apierr.Unauthorized(CodeUnauthorized, errInvalidToken)
	}

	revoked, err := as.isRevoked(ctx, claims.ID)
	if err != nil {
		as.log.Error("Failed to check token revocation", "error", err)
		return nil, apierr.Internal(CodeStorageFault, errors.New("could not verify token"))
	}
	if revoked {
		return nil, apierr.Unauthorized(CodeUnauthorized, errInvalidToken)
	}
	return claims, nil
}

// onlyExpired reports whether expiry is the sole validation failure in err.
func onlyExpired(err error) bool {
	for _, other := range []error{
		jwt.ErrTokenMalformed,
		jwt.ErrTokenSignatureInvalid,
		jwt.ErrTokenUnverifiable,
		jwt.ErrTokenInvalidIssuer,
		jwt.ErrTokenUsedBeforeIssued,
		jwt.ErrTokenNotValidYet,
	} {
		if errors.Is(err, other) {
			return false
		}
	}
	return true
}

func (as *authService) refreshableUntil(claims *JWTClaims) time.Time {
	return claims.IssuedAt.Time.Add(as.cfg.RefreshTTL)
}

func (as *authService) isRevoked(ctx context.Context, tokenID string) (bool, error) {
	if as.cache != nil {
		hit, err := as.cache.IsRevoked(ctx, tokenID)
		if err != nil {
			as.log.Warn("Revocation cache lookup failed", "error", err)
		} else if hit {
			return true, nil
		}
	}
	revoked, err := as.revokedRepo.Exists(dbctx.Context{Ctx: ctx}, tokenID)
	if err != nil {
		return false, err
	}
	if revoked {
		as.cacheRevocation(ctx, tokenID, as.cfg.Now().Add(as.cfg.RefreshTTL))
	}
	return revoked, nil
}

func (as *authService) cacheRevocation(ctx context.Context, tokenID string, until time.Time) {
	if as.cache == nil {
		return
	}
	if err := as.cache.MarkRevoked(ctx, tokenID, until); err != nil {
		as.log.Warn("Revocation cache write failed", "error", err)
	}
}

func (as *authService) observe(event, result string) {
	if as.cfg.Observer != nil {
		as.cfg.Observer.IncAuthEvent(event, result)
	}
}
