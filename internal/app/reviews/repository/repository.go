package repository

import (
	"context"
	"time"

	"rowanberries/internal/app/reviews/entity"

	"github.com/google/uuid"
)

// PostRepository определяет нетранзакционные операции над постами.
// Агрегатные поля рейтинга эти методы не трогают - их изменяет только TxStore.
type PostRepository interface {
	Create(ctx context.Context, post *entity.Post) error
	GetByID(ctx context.Context, id string) (*entity.Post, error)
	ListRecent(ctx context.Context, limit int) ([]entity.Post, error)
	Delete(ctx context.Context, id string) error
	DeleteRatingsByPostID(ctx context.Context, postID string) error
}

// CommentRepository определяет операции над комментариями и выборку лайков
type CommentRepository interface {
	Create(ctx context.Context, comment *entity.Comment) error
	GetByPostID(ctx context.Context, postID string) ([]entity.Comment, error)
	// LikedCommentIDs возвращает множество комментариев из commentIDs,
	// которые лайкнул участник. Один batched-запрос вместо N чтений.
	LikedCommentIDs(ctx context.Context, memberID string, commentIDs []string) (map[string]struct{}, error)
	DeleteByPostID(ctx context.Context, postID string) error
}

// ReservationRepository определяет обслуживающие выборки по резервациям
// username. Создание и подтверждение резерваций идёт только через TxStore.
type ReservationRepository interface {
	// DeleteStaleProvisional удаляет provisional резервации старше cutoff
	// и возвращает количество удалённых
	DeleteStaleProvisional(ctx context.Context, cutoff time.Time) (int64, error)
}

// MemberRepository определяет операции над аккаунтами участников в PostgreSQL
type MemberRepository interface {
	Create(ctx context.Context, member *entity.Member) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Member, error)
	GetByEmail(ctx context.Context, email string) (*entity.Member, error)
}
