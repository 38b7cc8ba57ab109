package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rowanberries/internal/app/reviews/entity"
	"rowanberries/pkg/logger"
	"rowanberries/pkg/metrics"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrCommentNotFound = errors.New("comment not found")
)

type commentRepository struct {
	comments *mongo.Collection
	likes    *mongo.Collection
}

// NewCommentRepository создает новый репозиторий комментариев
// Создает индексы по post_id (выборка треда) и по (member_id, comment_id)
// для batched-проверки лайков
func NewCommentRepository(db *mongo.Database) CommentRepository {
	comments := db.Collection(CollComments)
	likes := db.Collection(CollLikes)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	postIdx := mongo.IndexModel{
		Keys: bson.D{
			{Key: "post_id", Value: 1},
		},
		Options: options.Index().SetName("post_id_idx"),
	}
	if _, err := comments.Indexes().CreateOne(ctx, postIdx); err != nil {
		logger.Warn().Err(err).Msg("failed to create index on post_id")
	}

	likeIdx := mongo.IndexModel{
		Keys: bson.D{
			{Key: "member_id", Value: 1},
			{Key: "comment_id", Value: 1},
		},
		Options: options.Index().SetName("member_comment_idx"),
	}
	if _, err := likes.Indexes().CreateOne(ctx, likeIdx); err != nil {
		logger.Warn().Err(err).Msg("failed to create index on member_id, comment_id")
	}

	return &commentRepository{
		comments: comments,
		likes:    likes,
	}
}

// Create создает новый комментарий
func (r *commentRepository) Create(ctx context.Context, comment *entity.Comment) error {
	timer := metrics.NewDbTimer("reviews-service", metrics.DbOpInsert, CollComments)
	defer timer.ObserveDuration()

	comment.CreatedAt = time.Now()
	comment.LikeCount = 0
	// Версия 1, чтобы документ сразу участвовал в CAS-транзакциях
	comment.Version = 1

	if _, err := r.comments.InsertOne(ctx, comment); err != nil {
		metrics.RecordDbError("reviews-service", metrics.DbOpInsert)
		return fmt.Errorf("failed to create comment: %w", err)
	}

	return nil
}

// GetByPostID получает все комментарии поста
func (r *commentRepository) GetByPostID(ctx context.Context, postID string) ([]entity.Comment, error) {
	timer := metrics.NewDbTimer("reviews-service", metrics.DbOpFind, CollComments)
	defer timer.ObserveDuration()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cursor, err := r.comments.Find(ctx, bson.M{"post_id": postID}, opts)
	if err != nil {
		metrics.RecordDbError("reviews-service", metrics.DbOpFind)
		return nil, fmt.Errorf("failed to find comments: %w", err)
	}
	defer cursor.Close(ctx)

	var comments []entity.Comment
	if err := cursor.All(ctx, &comments); err != nil {
		return nil, fmt.Errorf("failed to decode comments: %w", err)
	}

	return comments, nil
}

// LikedCommentIDs возвращает, какие из commentIDs лайкнуты участником.
// Один запрос с $in вместо чтения membership-документа на каждый комментарий.
func (r *commentRepository) LikedCommentIDs(ctx context.Context, memberID string, commentIDs []string) (map[string]struct{}, error) {
	liked := make(map[string]struct{}, len(commentIDs))
	if len(commentIDs) == 0 {
		return liked, nil
	}

	timer := metrics.NewDbTimer("reviews-service", metrics.DbOpFind, CollLikes)
	defer timer.ObserveDuration()

	filter := bson.M{
		"member_id":  memberID,
		"comment_id": bson.M{"$in": commentIDs},
	}

	cursor, err := r.likes.Find(ctx, filter)
	if err != nil {
		metrics.RecordDbError("reviews-service", metrics.DbOpFind)
		return nil, fmt.Errorf("failed to find like memberships: %w", err)
	}
	defer cursor.Close(ctx)

	var memberships []entity.LikeMembership
	if err := cursor.All(ctx, &memberships); err != nil {
		return nil, fmt.Errorf("failed to decode like memberships: %w", err)
	}

	for _, m := range memberships {
		liked[m.CommentID] = struct{}{}
	}

	return liked, nil
}

// DeleteByPostID удаляет комментарии поста вместе с их лайками
// (каскад при удалении поста)
func (r *commentRepository) DeleteByPostID(ctx context.Context, postID string) error {
	timer := metrics.NewDbTimer("reviews-service", metrics.DbOpDelete, CollComments)
	defer timer.ObserveDuration()

	// Сначала собираем ID комментариев, чтобы зачистить membership-документы
	cursor, err := r.comments.Find(ctx, bson.M{"post_id": postID},
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		metrics.RecordDbError("reviews-service", metrics.DbOpFind)
		return fmt.Errorf("failed to find comments for post: %w", err)
	}

	var ids []struct {
		ID string `bson:"_id"`
	}
	if err := cursor.All(ctx, &ids); err != nil {
		return fmt.Errorf("failed to decode comment ids: %w", err)
	}

	if len(ids) > 0 {
		commentIDs := make([]string, 0, len(ids))
		for _, id := range ids {
			commentIDs = append(commentIDs, id.ID)
		}
		if _, err := r.likes.DeleteMany(ctx, bson.M{"comment_id": bson.M{"$in": commentIDs}}); err != nil {
			metrics.RecordDbError("reviews-service", metrics.DbOpDelete)
			return fmt.Errorf("failed to delete like memberships: %w", err)
		}
	}

	if _, err := r.comments.DeleteMany(ctx, bson.M{"post_id": postID}); err != nil {
		metrics.RecordDbError("reviews-service", metrics.DbOpDelete)
		return fmt.Errorf("failed to delete comments: %w", err)
	}

	return nil
}
