package repository

import (
	"context"
	"errors"
	"fmt"

	"rowanberries/internal/app/reviews/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrMemberNotFound = errors.New("member not found")
)

// memberRepository реализует MemberRepository для PostgreSQL через GORM
type memberRepository struct {
	db *gorm.DB
}

// NewMemberRepository создает новый репозиторий аккаунтов участников
func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &memberRepository{db: db}
}

// Create создает нового участника
func (r *memberRepository) Create(ctx context.Context, member *entity.Member) error {
	result := r.db.WithContext(ctx).Create(member)
	if result.Error != nil {
		return fmt.Errorf("failed to create member: %w", result.Error)
	}
	return nil
}

// GetByID получает участника по ID
func (r *memberRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Member, error) {
	var member entity.Member

	result := r.db.WithContext(ctx).Where("id = ?", id).First(&member)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to get member: %w", result.Error)
	}

	return &member, nil
}

// GetByEmail получает участника по email
func (r *memberRepository) GetByEmail(ctx context.Context, email string) (*entity.Member, error) {
	var member entity.Member

	result := r.db.WithContext(ctx).Where("email = ?", email).First(&member)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to get member by email: %w", result.Error)
	}

	return &member, nil
}
