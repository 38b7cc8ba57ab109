package service

import (
	"context"

	"rowanberries/internal/app/reviews/entity"
)

// RatingCache - кеш сводок рейтинга (Redis)
// Используется для dependency injection и упрощения тестирования
type RatingCache interface {
	GetSummary(ctx context.Context, postID string) (*entity.RatingSummary, error)
	SetSummary(ctx context.Context, postID string, summary *entity.RatingSummary) error
	DeleteSummary(ctx context.Context, postID string) error
}

// UsernameReserver - двухфазный протокол резервирования username,
// как его видит signup-поток
type UsernameReserver interface {
	Reserve(ctx context.Context, rawHandle string) (string, error)
	Confirm(ctx context.Context, token string, memberID string) error
	Release(ctx context.Context, token string) error
}
