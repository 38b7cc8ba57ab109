package entity

import "time"

// Типы доменных событий, публикуемых в Kafka после успешного коммита
const (
	EventRatingSubmitted  = "RATING_SUBMITTED"
	EventLikeToggled      = "LIKE_TOGGLED"
	EventMemberRegistered = "MEMBER_REGISTERED"
)

type RatingEvent struct {
	EventType string    `json:"event_type"` // RATING_SUBMITTED
	PostID    string    `json:"post_id"`
	MemberID  string    `json:"member_id"`
	Value     int       `json:"value"`
	Average   float64   `json:"average"`
	Count     int       `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}

type LikeEvent struct {
	EventType string    `json:"event_type"` // LIKE_TOGGLED
	CommentID string    `json:"comment_id"`
	MemberID  string    `json:"member_id"`
	Liked     bool      `json:"liked"`
	LikeCount int       `json:"like_count"`
	Timestamp time.Time `json:"timestamp"`
}

type MemberEvent struct {
	EventType string    `json:"event_type"` // MEMBER_REGISTERED
	MemberID  string    `json:"member_id"`
	Username  string    `json:"username"`
	Timestamp time.Time `json:"timestamp"`
}
