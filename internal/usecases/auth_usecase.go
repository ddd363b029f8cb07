package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"chatdagang/internal/entities"
)

type OperatorStore interface {
	GetByUsername(ctx context.Context, username string) (*entities.Operator, error)
	Create(ctx context.Context, op *entities.Operator) error
}

type AuthUsecase struct {
	ops       OperatorStore
	jwtSecret []byte
}

func NewAuthUsecase(ops OperatorStore, secret string) *AuthUsecase {
	return &AuthUsecase{ops: ops, jwtSecret: []byte(secret)}
}

func (uc *AuthUsecase) Register(ctx context.Context, username, password string, businessID int64) error {
	existing, err := uc.ops.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if existing != nil {
		return errors.New("username already exists")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return uc.ops.Create(ctx, &entities.Operator{
		Username:     username,
		PasswordHash: string(hashed),
		Role:         "operator",
		BusinessID:   businessID,
	})
}

func (uc *AuthUsecase) Login(ctx context.Context, username, password string) (string, error) {
	op, err := uc.ops.GetByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	if op == nil {
		return "", errors.New("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(password)); err != nil {
		return "", errors.New("invalid credentials")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":     op.ID,
		"role":        op.Role,
		"business_id": op.BusinessID,
		"exp":         time.Now().Add(24 * time.Hour).Unix(),
	})

	signed, err := token.SignedString(uc.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %v", err)
	}
	return signed, nil
}

// EnsureAdmin creates a platform admin if none exists (called on startup).
func (uc *AuthUsecase) EnsureAdmin(ctx context.Context, username, password string) error {
	op, err := uc.ops.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if op != nil {
		return nil
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return uc.ops.Create(ctx, &entities.Operator{
		Username:     username,
		PasswordHash: string(hashed),
		Role:         "admin",
	})
}
