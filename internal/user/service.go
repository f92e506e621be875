// Package user はプロフィール管理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hitoshi/grocerstock/internal/auth"
	"github.com/hitoshi/grocerstock/internal/model"
	"github.com/hitoshi/grocerstock/internal/repository"
)

// ProfileUpdate はプロフィール更新の許可フィールド。nilのフィールドは変更しない。
type ProfileUpdate struct {
	Username    *string
	Preferences map[string]any
}

// Service はプロフィール参照・更新とパスワード変更のサービス層。
type Service struct {
	userRepo repository.UserRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository) *Service {
	return &Service{userRepo: userRepo}
}

// GetProfile はユーザーのプロフィールを取得する。
func (s *Service) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// UpdateProfile はユーザー名とプリファレンスを更新する。
// 空白のみのユーザー名は無視する。他ユーザーが使用中のユーザー名は競合エラーになる。
func (s *Service) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*model.User, error) {
	if update.Username == nil && update.Preferences == nil {
		return nil, model.NewInvalidRequestError("更新内容が指定されていません。")
	}

	var username *string
	if update.Username != nil {
		if trimmed := strings.TrimSpace(*update.Username); trimmed != "" {
			other, err := s.userRepo.FindByUsername(ctx, trimmed)
			if err != nil {
				return nil, fmt.Errorf("ユーザー名の確認に失敗しました: %w", err)
			}
			if other != nil && other.ID != userID {
				return nil, model.NewUsernameTakenError()
			}
			username = &trimmed
		}
	}

	if username == nil && update.Preferences == nil {
		return s.GetProfile(ctx, userID)
	}

	user, err := s.userRepo.UpdateProfile(ctx, userID, username, update.Preferences)
	if err != nil {
		if repository.IsDuplicateOn(err, repository.ConstraintUserUsername) {
			return nil, model.NewUsernameTakenError()
		}
		return nil, fmt.Errorf("プロフィールの更新に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	slog.Info("プロフィールを更新しました",
		slog.String("user_id", userID),
		slog.Bool("username_changed", username != nil),
		slog.Bool("preferences_changed", update.Preferences != nil),
	)

	return user, nil
}

// ChangePassword は現在のパスワードを検証した上で新しいパスワードに置き換える。
func (s *Service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return model.NewInvalidRequestError("現在のパスワードと新しいパスワードは必須です。")
	}
	if err := auth.ValidatePassword(newPassword); err != nil {
		return err
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, currentPassword) {
		return model.NewIncorrectPasswordError()
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return fmt.Errorf("パスワードの更新に失敗しました: %w", err)
	}

	slog.Info("パスワードを変更しました",
		slog.String("user_id", userID),
	)
	return nil
}
