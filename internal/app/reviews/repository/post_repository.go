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
	// Стандартные ошибки репозитория для обработки в service layer
	ErrPostNotFound = errors.New("post not found")
)

type postRepository struct {
	posts   *mongo.Collection
	ratings *mongo.Collection
}

// NewPostRepository создает новый репозиторий постов
// Автоматически создает индекс по author_id для выборки постов участника
func NewPostRepository(db *mongo.Database) PostRepository {
	posts := db.Collection(CollPosts)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModel := mongo.IndexModel{
		Keys: bson.D{
			{Key: "author_id", Value: 1},
		},
		Options: options.Index().SetName("author_id_idx"),
	}

	if _, err := posts.Indexes().CreateOne(ctx, indexModel); err != nil {
		// Индекс может уже существовать, работу не прерываем
		logger.Warn().Err(err).Msg("failed to create index on author_id")
	}

	return &postRepository{
		posts:   posts,
		ratings: db.Collection(CollRatings),
	}
}

// Create создает пост с нулевыми агрегатами рейтинга
func (r *postRepository) Create(ctx context.Context, post *entity.Post) error {
	timer := metrics.NewDbTimer("reviews-service", metrics.DbOpInsert, CollPosts)
	defer timer.ObserveDuration()

	post.CreatedAt = time.Now()
	post.UpdatedAt = post.CreatedAt
	// Версия 1, чтобы документ сразу участвовал в CAS-транзакциях
	post.Version = 1

	if _, err := r.posts.InsertOne(ctx, post); err != nil {
		metrics.RecordDbError("reviews-service", metrics.DbOpInsert)
		return fmt.Errorf("failed to create post: %w", err)
	}

	return nil
}

// GetByID получает пост по ID
func (r *postRepository) GetByID(ctx context.Context, id string) (*entity.Post, error) {
	timer := metrics.NewDbTimer("reviews-service", metrics.DbOpFind, CollPosts)
	defer timer.ObserveDuration()

	var post entity.Post
	err := r.posts.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrPostNotFound
		}
		metrics.RecordDbError("reviews-service", metrics.DbOpFind)
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	return &post, nil
}

// ListRecent получает последние опубликованные посты
func (r *postRepository) ListRecent(ctx context.Context, limit int) ([]entity.Post, error) {
	timer := metrics.NewDbTimer("reviews-service", metrics.DbOpFind, CollPosts)
	defer timer.ObserveDuration()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.posts.Find(ctx, bson.M{}, opts)
	if err != nil {
		metrics.RecordDbError("reviews-service", metrics.DbOpFind)
		return nil, fmt.Errorf("failed to find posts: %w", err)
	}
	defer cursor.Close(ctx)

	var posts []entity.Post
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, fmt.Errorf("failed to decode posts: %w", err)
	}

	return posts, nil
}

// Delete удаляет пост
func (r *postRepository) Delete(ctx context.Context, id string) error {
	timer := metrics.NewDbTimer("reviews-service", metrics.DbOpDelete, CollPosts)
	defer timer.ObserveDuration()

	result, err := r.posts.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		metrics.RecordDbError("reviews-service", metrics.DbOpDelete)
		return fmt.Errorf("failed to delete post: %w", err)
	}

	if result.DeletedCount == 0 {
		return ErrPostNotFound
	}

	return nil
}

// DeleteRatingsByPostID удаляет все оценки поста (каскад при удалении поста)
func (r *postRepository) DeleteRatingsByPostID(ctx context.Context, postID string) error {
	timer := metrics.NewDbTimer("reviews-service", metrics.DbOpDelete, CollRatings)
	defer timer.ObserveDuration()

	if _, err := r.ratings.DeleteMany(ctx, bson.M{"post_id": postID}); err != nil {
		metrics.RecordDbError("reviews-service", metrics.DbOpDelete)
		return fmt.Errorf("failed to delete ratings: %w", err)
	}

	return nil
}
