package service

import (
	"context"
	"time"

	"github.com/murtaza-nasir/speakr-sub001/internal/model"
	appErr "github.com/murtaza-nasir/speakr-sub001/internal/pkg/errors"
	"github.com/murtaza-nasir/speakr-sub001/internal/pkg/jwt"
	"github.com/murtaza-nasir/speakr-sub001/internal/pkg/password"
	"github.com/murtaza-nasir/speakr-sub001/internal/pkg/timeutil"
	"github.com/murtaza-nasir/speakr-sub001/internal/repo"
)

type AuthService struct {
	users         *repo.UserRepo
	jwtSecret     []byte
	jwtTTL        time.Duration
	allowRegister bool
}

func NewAuthService(users *repo.UserRepo, secret []byte, ttl time.Duration, allowRegister bool) *AuthService {
	return &AuthService{users: users, jwtSecret: secret, jwtTTL: ttl, allowRegister: allowRegister}
}

func (s *AuthService) Register(ctx context.Context, email, plainPassword, displayName string) (*model.User, string, error) {
	if !s.allowRegister {
		return nil, "", appErr.ErrForbidden
	}
	hash, err := password.Hash(plainPassword)
	if err != nil {
		return nil, "", err
	}
	now := timeutil.NowUnix()
	user := &model.User{
		ID:           newID(),
		Email:        email,
		PasswordHash: hash,
		DisplayName:  displayName,
		Ctime:        now,
		Mtime:        now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", err
	}
	token, err := jwt.GenerateToken(user.ID, user.Email, s.jwtSecret, s.jwtTTL)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *AuthService) Login(ctx context.Context, email, plainPassword string) (*model.User, string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", appErr.ErrUnauthorized
	}
	if err := password.Compare(user.PasswordHash, plainPassword); err != nil {
		return nil, "", appErr.ErrUnauthorized
	}
	token, err := jwt.GenerateToken(user.ID, user.Email, s.jwtSecret, s.jwtTTL)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}
