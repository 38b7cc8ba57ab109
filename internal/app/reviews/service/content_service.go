package service

import (
	"context"
	"errors"
	"fmt"

	"rowanberries/internal/app/reviews/entity"
	"rowanberries/internal/app/reviews/repository"
	"rowanberries/pkg/logger"

	"github.com/google/uuid"
)

// ContentService обрабатывает публикацию постов и комментариев.
// Агрегаты рейтинга и лайков он только инициализирует нулями -
// дальше их изменяют исключительно транзакции Rating/LikeService.
type ContentService struct {
	posts    repository.PostRepository
	comments repository.CommentRepository
	cache    RatingCache
}

// NewContentService создает новый сервис контента
func NewContentService(
	posts repository.PostRepository,
	comments repository.CommentRepository,
	cache RatingCache,
) *ContentService {
	return &ContentService{
		posts:    posts,
		comments: comments,
		cache:    cache,
	}
}

// PublishPost публикует пост с нулевыми агрегатами рейтинга
func (s *ContentService) PublishPost(ctx context.Context, authorID string, req *entity.CreatePostRequest) (*entity.Post, error) {
	post := &entity.Post{
		ID:       uuid.NewString(),
		AuthorID: authorID,
		Title:    req.Title,
		Body:     req.Body,
		ImageURL: req.ImageURL,
	}

	if err := s.posts.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to publish post: %w", err)
	}

	return post, nil
}

// GetPost получает пост по ID
func (s *ContentService) GetPost(ctx context.Context, postID string) (*entity.Post, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return post, nil
}

// ListRecentPosts получает последние посты
func (s *ContentService) ListRecentPosts(ctx context.Context, limit int) ([]entity.Post, error) {
	posts, err := s.posts.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

// GetRatingSummary получает сводку рейтинга: сначала из Redis,
// при промахе - из документа поста с прогревом кеша
func (s *ContentService) GetRatingSummary(ctx context.Context, postID string) (*entity.RatingSummary, error) {
	summary, err := s.cache.GetSummary(ctx, postID)
	if err != nil {
		logger.Warn().Err(err).Str("post_id", postID).Msg("rating summary cache read failed")
	}
	if summary != nil {
		return summary, nil
	}

	post, err := s.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	summary = &entity.RatingSummary{Average: post.AvgRating, Count: post.RatingCount}
	if err := s.cache.SetSummary(ctx, postID, summary); err != nil {
		logger.Warn().Err(err).Str("post_id", postID).Msg("failed to warm rating summary cache")
	}

	return summary, nil
}

// AddComment добавляет комментарий к посту
func (s *ContentService) AddComment(ctx context.Context, postID, authorID string, req *entity.AddCommentRequest) (*entity.Comment, error) {
	// Пост должен существовать
	if _, err := s.GetPost(ctx, postID); err != nil {
		return nil, err
	}

	comment := &entity.Comment{
		ID:       uuid.NewString(),
		PostID:   postID,
		AuthorID: authorID,
		Text:     req.Text,
	}

	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}

	return comment, nil
}

// ListComments получает комментарии поста вместе с признаком лайка
// текущего участника. Лайки резолвятся одним batched-запросом,
// а не чтением на каждый комментарий.
func (s *ContentService) ListComments(ctx context.Context, postID, memberID string) ([]entity.CommentView, error) {
	comments, err := s.comments.GetByPostID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	var liked map[string]struct{}
	if memberID != "" && len(comments) > 0 {
		commentIDs := make([]string, 0, len(comments))
		for _, c := range comments {
			commentIDs = append(commentIDs, c.ID)
		}
		liked, err = s.comments.LikedCommentIDs(ctx, memberID, commentIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve liked comments: %w", err)
		}
	}

	views := make([]entity.CommentView, 0, len(comments))
	for _, c := range comments {
		_, isLiked := liked[c.ID]
		views = append(views, entity.CommentView{Comment: c, Liked: isLiked})
	}

	return views, nil
}

// DeletePost удаляет пост с проверкой прав и каскадом:
// оценки, комментарии и их лайки уходят вместе с постом
func (s *ContentService) DeletePost(ctx context.Context, postID, requesterID string) error {
	post, err := s.GetPost(ctx, postID)
	if err != nil {
		return err
	}

	// Удалять пост может только автор
	if post.AuthorID != requesterID {
		return ErrUnauthorized
	}

	if err := s.posts.Delete(ctx, postID); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	if err := s.posts.DeleteRatingsByPostID(ctx, postID); err != nil {
		return fmt.Errorf("failed to cascade ratings: %w", err)
	}
	if err := s.comments.DeleteByPostID(ctx, postID); err != nil {
		return fmt.Errorf("failed to cascade comments: %w", err)
	}

	if err := s.cache.DeleteSummary(ctx, postID); err != nil {
		logger.Warn().Err(err).Str("post_id", postID).Msg("failed to evict rating summary cache")
	}

	return nil
}
