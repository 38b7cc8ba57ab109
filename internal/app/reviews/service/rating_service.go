package service

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"rowanberries/internal/app/reviews/entity"
	"rowanberries/internal/app/reviews/infrastructure"
	"rowanberries/internal/app/reviews/repository"
	"rowanberries/pkg/logger"
	"rowanberries/pkg/metrics"
)

// RatingService поддерживает агрегаты рейтинга поста (среднее и количество)
// консистентными при конкурентных оценках. Вся сериализация - через
// оптимистичные транзакции TxStore, своих блокировок нет.
type RatingService struct {
	store     repository.TxStore
	cache     RatingCache
	publisher infrastructure.MessagePublisher
}

// NewRatingService создает новый сервис рейтингов с внедрением зависимостей
func NewRatingService(
	store repository.TxStore,
	cache RatingCache,
	publisher infrastructure.MessagePublisher,
) *RatingService {
	return &RatingService{
		store:     store,
		cache:     cache,
		publisher: publisher,
	}
}

func ratingDocID(postID, memberID string) string {
	return postID + ":" + memberID
}

// SubmitRating выставляет или перезаписывает оценку участника для поста.
// 1. Читает пост и предыдущую оценку пары (пост, участник) одним снимком
// 2. Пересчитывает среднее из точной целочисленной суммы
// 3. Атомарно пишет оценку и обновлённые агрегаты
// Конкурентные вызовы для одного поста сериализуются ретраями хранилища.
func (s *RatingService) SubmitRating(ctx context.Context, postID, memberID string, value int) (*entity.RatingSummary, error) {
	// Повторная валидация: сервис - последний рубеж перед порчей агрегата
	if value < 1 || value > 5 {
		return nil, ErrInvalidRating
	}

	postKey := repository.DocKey{Collection: repository.CollPosts, ID: postID}
	ratingKey := repository.DocKey{Collection: repository.CollRatings, ID: ratingDocID(postID, memberID)}

	var summary entity.RatingSummary

	err := s.store.RunAtomically(ctx, "submit_rating",
		[]repository.DocKey{postKey, ratingKey},
		func(reads map[repository.DocKey]*repository.Doc) (*repository.WriteSet, error) {
			now := time.Now()

			postDoc := reads[postKey]
			if postDoc == nil {
				return nil, ErrPostNotFound
			}

			var post entity.Post
			if err := postDoc.Decode(&post); err != nil {
				return nil, err
			}

			if prevDoc := reads[ratingKey]; prevDoc != nil {
				// Повторная оценка: количество не меняется,
				// из суммы уходит прежнее значение
				var prev entity.Rating
				if err := prevDoc.Decode(&prev); err != nil {
					return nil, err
				}
				post.RatingSum += value - prev.Value
			} else {
				post.RatingSum += value
				post.RatingCount++
			}

			post.AvgRating = roundRating(float64(post.RatingSum) / float64(post.RatingCount))
			post.UpdatedAt = now

			ws := repository.NewWriteSet()
			ws.Put(postKey, &post)
			ws.Put(ratingKey, &entity.Rating{
				PostID:    postID,
				MemberID:  memberID,
				Value:     value,
				UpdatedAt: now,
			})

			summary = entity.RatingSummary{Average: post.AvgRating, Count: post.RatingCount}
			return ws, nil
		})
	if err != nil {
		return nil, err
	}

	metrics.RatingsSubmitted.Inc()

	// Кеш и событие - best effort после коммита, коммит уже состоялся
	if err := s.cache.SetSummary(ctx, postID, &summary); err != nil {
		logger.Warn().Err(err).Str("post_id", postID).Msg("failed to update rating summary cache")
	}
	s.publishRatingEvent(ctx, entity.RatingEvent{
		EventType: entity.EventRatingSubmitted,
		PostID:    postID,
		MemberID:  memberID,
		Value:     value,
		Average:   summary.Average,
		Count:     summary.Count,
		Timestamp: time.Now(),
	})

	return &summary, nil
}

// roundRating округляет среднее до 2 знаков, half away from zero.
// Округление применяется один раз при записи: источником для следующих
// пересчётов служит точная сумма оценок, а не округлённое среднее,
// поэтому дрейфа от повторных округлений нет.
func roundRating(x float64) float64 {
	return math.Round(x*100) / 100
}

func (s *RatingService) publishRatingEvent(ctx context.Context, event entity.RatingEvent) {
	eventData, err := json.Marshal(event)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to marshal rating event")
		return
	}

	// Ключ = PostID для партиционирования событий одного поста
	if err := s.publisher.PublishMessage(ctx, event.PostID, eventData); err != nil {
		logger.Warn().Err(err).Str("post_id", event.PostID).Msg("failed to publish rating event")
	}
}
