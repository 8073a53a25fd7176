package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	authdomain "devboard-backend/internal/auth/domain"
	authdto "devboard-backend/internal/auth/dto"
	"devboard-backend/internal/auth/repository"
	conndomain "devboard-backend/internal/connection/domain"
	connrepository "devboard-backend/internal/connection/repository"
	connusecase "devboard-backend/internal/connection/usecase"
	"devboard-backend/pkg/cache"
	"devboard-backend/pkg/config"
	"devboard-backend/pkg/provider"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const githubLoginStatePrefix = "login:"

// authUsecase implements AuthUsecase interface
type authUsecase struct {
	userRepo repository.UserRepository
	connRepo connrepository.ConnectionRepository
	registry *provider.Registry
	cache    *cache.Cache
	config   *config.Config
}

// NewAuthUsecase creates a new instance of authUsecase
func NewAuthUsecase(userRepo repository.UserRepository, connRepo connrepository.ConnectionRepository, registry *provider.Registry, c *cache.Cache, cfg *config.Config) AuthUsecase {
	return &authUsecase{
		userRepo: userRepo,
		connRepo: connRepo,
		registry: registry,
		cache:    c,
		config:   cfg,
	}
}

func (u *authUsecase) Register(req *authdto.RegisterRequest) (*authdto.TokenResponse, error) {
	existing, err := u.userRepo.FindByEmail(req.Email)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		return nil, errors.New("email already registered")
	}

	hashedPassword, err := repository.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &authdomain.User{
		Email:    req.Email,
		Password: hashedPassword,
		Name:     req.Name,
		Provider: "local",
	}

	if err := u.userRepo.Create(user); err != nil {
		return nil, err
	}

	return u.generateTokens(user)
}

func (u *authUsecase) Login(req *authdto.LoginRequest) (*authdto.TokenResponse, error) {
	user, err := u.userRepo.FindByEmail(req.Email)
	if err != nil {
		return nil, err
	}

	if user == nil {
		return nil, errors.New("invalid email or password")
	}

	if user.Provider != "local" {
		return nil, errors.New("please sign in with GitHub for this account")
	}

	if !repository.CheckPasswordHash(req.Password, user.Password) {
		return nil, errors.New("invalid email or password")
	}

	return u.generateTokens(user)
}

func (u *authUsecase) GitHubAuthURL(ctx context.Context) (string, error) {
	p, err := u.registry.Get(conndomain.ProviderGitHub)
	if err != nil {
		return "", err
	}

	state := githubLoginStatePrefix + uuid.New().String()
	if err := u.cache.PutNonce(ctx, cache.Key("auth", "github", "state", state), 5*time.Minute); err != nil {
		return "", fmt.Errorf("storing login state: %w", err)
	}

	return p.OAuthConfig().AuthCodeURL(state, p.AuthCodeOptions...), nil
}

func (u *authUsecase) GitHubSignIn(ctx context.Context, code, state string) (*authdto.TokenResponse, error) {
	if !strings.HasPrefix(state, githubLoginStatePrefix) {
		return nil, errors.New("invalid state")
	}

	ok, err := u.cache.TakeNonce(ctx, cache.Key("auth", "github", "state", state))
	if err != nil {
		return nil, fmt.Errorf("validating login state: %w", err)
	}
	if !ok {
		return nil, errors.New("invalid or expired state")
	}

	p, err := u.registry.Get(conndomain.ProviderGitHub)
	if err != nil {
		return nil, err
	}

	token, profile, err := connusecase.ExchangeCode(ctx, p, code)
	if err != nil {
		return nil, err
	}

	if profile.Email == "" {
		return nil, errors.New("github account has no accessible email")
	}

	user, err := u.userRepo.FindByEmail(profile.Email)
	if err != nil {
		return nil, err
	}

	if user == nil {
		// GitHub-created accounts get an unguessable placeholder password.
		hashed, herr := repository.HashPassword(uuid.New().String())
		if herr != nil {
			return nil, herr
		}
		user = &authdomain.User{
			Email:     profile.Email,
			Password:  hashed,
			Name:      profile.DisplayName,
			AvatarURL: profile.AvatarURL,
			Provider:  "github",
		}
		if err := u.userRepo.Create(user); err != nil {
			return nil, err
		}
	} else {
		user.Name = profile.DisplayName
		user.AvatarURL = profile.AvatarURL
		if err := u.userRepo.Update(user); err != nil {
			return nil, err
		}
	}

	// Signing in with GitHub also links the account for the repo endpoints.
	_, err = u.connRepo.Upsert(&conndomain.Connection{
		UserID:         user.ID,
		Provider:       p.Name,
		AccessToken:    token.AccessToken,
		RefreshToken:   token.RefreshToken,
		ExpiresAt:      token.Expiry,
		Scope:          strings.Join(p.Scopes, " "),
		ProviderUserID: profile.ProviderUserID,
		DisplayName:    profile.DisplayName,
		Email:          profile.Email,
		AvatarURL:      profile.AvatarURL,
	})
	if err != nil {
		return nil, err
	}

	return u.generateTokens(user)
}

func (u *authUsecase) RefreshToken(refreshToken string) (*authdto.TokenResponse, error) {
	// Verify refresh token
	token, err := jwt.Parse(refreshToken, func(token *jwt.Token) (interface{}, error) {
		return []byte(u.config.JWTSecret), nil
	})

	if err != nil || !token.Valid {
		return nil, errors.New("invalid refresh token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	// Check if token exists in repository
	storedToken, err := u.userRepo.FindRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	if storedToken == nil || storedToken.ExpiresAt.Before(time.Now()) {
		return nil, errors.New("refresh token expired")
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	user, err := u.userRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}

	if user == nil {
		return nil, errors.New("user not found")
	}

	return u.generateTokens(user)
}

func (u *authUsecase) Logout(refreshToken string) error {
	return u.userRepo.DeleteRefreshToken(refreshToken)
}

func (u *authUsecase) generateTokens(user *authdomain.User) (*authdto.TokenResponse, error) {
	accessToken, err := u.generateAccessToken(user)
	if err != nil {
		return nil, err
	}

	refreshToken, err := u.generateRefreshToken(user)
	if err != nil {
		return nil, err
	}

	refreshTokenEntity := &authdomain.RefreshToken{
		Token:     refreshToken,
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(u.config.JWTRefreshExpiry),
	}
	if err := u.userRepo.ReplaceRefreshToken(refreshTokenEntity); err != nil {
		return nil, err
	}

	return &authdto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}

func (u *authUsecase) generateAccessToken(user *authdomain.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"exp":     time.Now().Add(u.config.JWTAccessExpiry).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(u.config.JWTSecret))
}

func (u *authUsecase) generateRefreshToken(user *authdomain.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"token_id": uuid.New().String(),
		"exp":      time.Now().Add(u.config.JWTRefreshExpiry).Unix(),
		"iat":      time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(u.config.JWTSecret))
}

func (u *authUsecase) ValidateToken(tokenString string) (*authdomain.User, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(u.config.JWTSecret), nil
	})

	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	user, err := u.userRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}

	if user == nil {
		return nil, errors.New("user not found")
	}

	return user, nil
}
