package service

import (
	"context"
	"encoding/json"
	"time"

	"rowanberries/internal/app/reviews/entity"
	"rowanberries/internal/app/reviews/infrastructure"
	"rowanberries/internal/app/reviews/repository"
	"rowanberries/pkg/logger"
	"rowanberries/pkg/metrics"
)

// LikeService поддерживает счётчик лайков комментария равным числу
// membership-документов. Это переключатель: повторный вызов снимает лайк.
type LikeService struct {
	store     repository.TxStore
	publisher infrastructure.MessagePublisher
}

// NewLikeService создает новый сервис лайков
func NewLikeService(store repository.TxStore, publisher infrastructure.MessagePublisher) *LikeService {
	return &LikeService{
		store:     store,
		publisher: publisher,
	}
}

func likeDocID(commentID, memberID string) string {
	return commentID + ":" + memberID
}

// ToggleLike переключает лайк участника на комментарии.
// Наличие membership-документа и счётчик читаются одним снимком и пишутся
// одним коммитом, поэтому счётчик никогда не расходится с количеством
// membership-документов.
func (s *LikeService) ToggleLike(ctx context.Context, commentID, memberID string) (*entity.LikeStatus, error) {
	commentKey := repository.DocKey{Collection: repository.CollComments, ID: commentID}
	likeKey := repository.DocKey{Collection: repository.CollLikes, ID: likeDocID(commentID, memberID)}

	var status entity.LikeStatus

	err := s.store.RunAtomically(ctx, "toggle_like",
		[]repository.DocKey{commentKey, likeKey},
		func(reads map[repository.DocKey]*repository.Doc) (*repository.WriteSet, error) {
			commentDoc := reads[commentKey]
			if commentDoc == nil {
				return nil, ErrCommentNotFound
			}

			var comment entity.Comment
			if err := commentDoc.Decode(&comment); err != nil {
				return nil, err
			}

			ws := repository.NewWriteSet()

			if reads[likeKey] == nil {
				comment.LikeCount++
				ws.Put(likeKey, &entity.LikeMembership{
					CommentID: commentID,
					MemberID:  memberID,
					CreatedAt: time.Now(),
				})
				status = entity.LikeStatus{Liked: true, LikeCount: comment.LikeCount}
			} else {
				// Membership есть, а счётчик уже нулевой - инвариант нарушен
				// где-то раньше. Отказываем, отрицательный счётчик не пишем.
				if comment.LikeCount <= 0 {
					return nil, ErrInternalConsistency
				}
				comment.LikeCount--
				ws.Delete(likeKey)
				status = entity.LikeStatus{Liked: false, LikeCount: comment.LikeCount}
			}

			ws.Put(commentKey, &comment)
			return ws, nil
		})
	if err != nil {
		return nil, err
	}

	if status.Liked {
		metrics.LikesToggled.WithLabelValues("on").Inc()
	} else {
		metrics.LikesToggled.WithLabelValues("off").Inc()
	}

	s.publishLikeEvent(ctx, entity.LikeEvent{
		EventType: entity.EventLikeToggled,
		CommentID: commentID,
		MemberID:  memberID,
		Liked:     status.Liked,
		LikeCount: status.LikeCount,
		Timestamp: time.Now(),
	})

	return &status, nil
}

func (s *LikeService) publishLikeEvent(ctx context.Context, event entity.LikeEvent) {
	eventData, err := json.Marshal(event)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to marshal like event")
		return
	}

	if err := s.publisher.PublishMessage(ctx, event.CommentID, eventData); err != nil {
		logger.Warn().Err(err).Str("comment_id", event.CommentID).Msg("failed to publish like event")
	}
}
