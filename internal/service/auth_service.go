package service

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"time"

	config "github.com/Houman6460/fooodis-blog-sub005/configs"
	"github.com/Houman6460/fooodis-blog-sub005/pkg/utils"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

const (
	adminUserID   = "admin"
	tokenDuration = 24 * time.Hour
)

type AuthService interface {
	Login(password string) (string, time.Time, error)
}

type authService struct {
	cfg config.Config
}

func NewAuthService(cfg config.Config) AuthService {
	return &authService{cfg: cfg}
}

// Login checks the admin password and issues a session token.
func (s *authService) Login(password string) (string, time.Time, error) {
	if s.cfg.AdminPassword == "" {
		err := errors.New("admin password is not configured")
		slog.Error(err.Error())
		return "", time.Time{}, err
	}
	if subtle.ConstantTimeCompare([]byte(password), []byte(s.cfg.AdminPassword)) != 1 {
		slog.Info("rejected admin login")
		return "", time.Time{}, ErrInvalidCredentials
	}

	token, err := utils.GenerateToken(s.cfg.SecretKey, adminUserID, tokenDuration)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, time.Now().Add(tokenDuration), nil
}
