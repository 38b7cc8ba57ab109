package entity

import (
	"time"

	"github.com/google/uuid"
)

// Статусы резервации username
const (
	ReservationProvisional = "provisional"
	ReservationConfirmed   = "confirmed"
)

// Post - пост участника вместе с агрегатами рейтинга.
// Агрегатные поля изменяются только транзакциями RatingService.
type Post struct {
	ID          string    `json:"id" bson:"_id"`
	AuthorID    string    `json:"author_id" bson:"author_id"`
	Title       string    `json:"title" bson:"title"`
	Body        string    `json:"body" bson:"body"`
	ImageURL    string    `json:"image_url,omitempty" bson:"image_url,omitempty"`
	AvgRating   float64   `json:"avg_rating" bson:"avg_rating"`     // Среднее по оценкам, округлено до 2 знаков
	RatingCount int       `json:"rating_count" bson:"rating_count"` // Количество оценок
	RatingSum   int       `json:"-" bson:"rating_sum"`              // Точная целочисленная сумма оценок; среднее всегда пересчитывается из неё
	Version     int64     `json:"-" bson:"version"`                 // Версия документа для optimistic concurrency
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

// Rating - оценка участника для поста, не более одной на пару (пост, участник).
// Ключ документа: "<post_id>:<member_id>".
type Rating struct {
	PostID    string    `json:"post_id" bson:"post_id"`
	MemberID  string    `json:"member_id" bson:"member_id"`
	Value     int       `json:"value" bson:"value"` // Оценка от 1 до 5
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Comment - комментарий к посту со счётчиком лайков.
// like_count всегда равен числу документов LikeMembership этого комментария.
type Comment struct {
	ID        string    `json:"id" bson:"_id"`
	PostID    string    `json:"post_id" bson:"post_id"`
	AuthorID  string    `json:"author_id" bson:"author_id"`
	Text      string    `json:"text" bson:"text"`
	LikeCount int       `json:"like_count" bson:"like_count"`
	Version   int64     `json:"-" bson:"version"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// LikeMembership - факт лайка комментария участником.
// Ключ документа: "<comment_id>:<member_id>". Наличие документа и есть лайк.
type LikeMembership struct {
	CommentID string    `json:"comment_id" bson:"comment_id"`
	MemberID  string    `json:"member_id" bson:"member_id"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// UsernameReservation - эксклюзивная заявка на нормализованный username.
// Ключ документа: нормализованный handle. Пока аккаунт не создан,
// owner_id содержит provisional токен, после подтверждения - ID участника.
type UsernameReservation struct {
	Handle      string     `json:"handle" bson:"handle"`
	OwnerID     string     `json:"owner_id" bson:"owner_id"`
	Status      string     `json:"status" bson:"status"` // provisional | confirmed
	CreatedAt   time.Time  `json:"created_at" bson:"created_at"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty" bson:"confirmed_at,omitempty"`
}

// Member - аккаунт участника в PostgreSQL (хранилище идентичности).
type Member struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	Username     string    `json:"username" gorm:"not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at"`
}

func (Member) TableName() string {
	return "members"
}

// RatingSummary - сводка рейтинга поста после коммита
type RatingSummary struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// LikeStatus - состояние лайка после переключения
type LikeStatus struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"like_count"`
}
