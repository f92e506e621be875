// Package auth はパスワード認証とアクセストークンの発行を提供する。
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/hitoshi/grocerstock/internal/model"
	"github.com/hitoshi/grocerstock/internal/repository"
)

// TokenIssuer はアクセストークンの発行インターフェース。*TokenManagerが満たす。
type TokenIssuer interface {
	Generate(user *model.User) (string, error)
}

// Result は登録・ログイン成功時の結果。
type Result struct {
	AccessToken string
	User        *model.User
}

// Service は登録とログインのビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	tokens   TokenIssuer
	validate *validator.Validate
	now      func() time.Time
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository, tokens TokenIssuer) *Service {
	return &Service{
		userRepo: userRepo,
		tokens:   tokens,
		validate: validator.New(),
		now:      time.Now,
	}
}

// NormalizeEmail は前後の空白を除去し小文字化する。
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register は新規ユーザーを登録しアクセストークンを発行する。
// 入力検証に失敗した場合はストアへの書き込みを行わない。
func (s *Service) Register(ctx context.Context, email, username, password string) (*Result, error) {
	email = NormalizeEmail(email)
	username = strings.TrimSpace(username)

	if email == "" || username == "" || password == "" {
		return nil, model.NewInvalidRequestError("メールアドレス、ユーザー名、パスワードは必須です。")
	}
	if err := s.validate.Var(email, "email"); err != nil {
		return nil, model.NewInvalidEmailError()
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if existing != nil {
		return nil, model.NewEmailAlreadyRegisteredError()
	}
	existing, err = s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if existing != nil {
		return nil, model.NewUsernameTakenError()
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
		Preferences:  model.DefaultPreferences(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		switch {
		case repository.IsDuplicateOn(err, repository.ConstraintUserEmail):
			return nil, model.NewEmailAlreadyRegisteredError()
		case repository.IsDuplicateOn(err, repository.ConstraintUserUsername):
			return nil, model.NewUsernameTakenError()
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		return nil, err
	}

	slog.Info("user registered",
		slog.String("user_id", user.ID),
	)

	return &Result{AccessToken: token, User: user}, nil
}

// Login はメールアドレスとパスワードを検証し、最終ログイン日時を更新してトークンを発行する。
// メールアドレス未登録とパスワード不一致は同じエラーを返す。
func (s *Service) Login(ctx context.Context, email, password string) (*Result, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, model.NewInvalidRequestError("メールアドレスとパスワードは必須です。")
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil || !CheckPassword(user.PasswordHash, password) {
		slog.Warn("login failed",
			slog.String("reason", "invalid_credentials"),
		)
		return nil, model.NewInvalidCredentialsError()
	}

	now := s.now().UTC()
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.LastLogin = &now

	token, err := s.tokens.Generate(user)
	if err != nil {
		return nil, err
	}

	slog.Info("user logged in",
		slog.String("user_id", user.ID),
	)

	return &Result{AccessToken: token, User: user}, nil
}
