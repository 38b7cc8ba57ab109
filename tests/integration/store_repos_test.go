//go:build integration

package integration

import (
	"context"

	"rowanberries/internal/app/reviews/entity"
	"rowanberries/internal/app/reviews/repository"
)

// Адаптеры репозиториев контента поверх MemoryTxStore: ровно столько,
// сколько нужно сценариям, остальные методы пустые

type storePostRepo struct {
	store *repository.MemoryTxStore
}

func newSeededPostRepo(store *repository.MemoryTxStore) repository.PostRepository {
	return &storePostRepo{store: store}
}

func (r *storePostRepo) Create(ctx context.Context, post *entity.Post) error {
	return r.store.Seed(repository.DocKey{Collection: repository.CollPosts, ID: post.ID}, post)
}

func (r *storePostRepo) GetByID(ctx context.Context, id string) (*entity.Post, error) {
	var post entity.Post
	found, err := r.store.Get(repository.DocKey{Collection: repository.CollPosts, ID: id}, &post)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, repository.ErrPostNotFound
	}
	return &post, nil
}

func (r *storePostRepo) ListRecent(ctx context.Context, limit int) ([]entity.Post, error) {
	return nil, nil
}

func (r *storePostRepo) Delete(ctx context.Context, id string) error {
	return nil
}

func (r *storePostRepo) DeleteRatingsByPostID(ctx context.Context, postID string) error {
	return nil
}

type storeCommentRepo struct {
	store *repository.MemoryTxStore
}

func newSeededCommentRepo(store *repository.MemoryTxStore) repository.CommentRepository {
	return &storeCommentRepo{store: store}
}

func (r *storeCommentRepo) Create(ctx context.Context, comment *entity.Comment) error {
	return r.store.Seed(repository.DocKey{Collection: repository.CollComments, ID: comment.ID}, comment)
}

func (r *storeCommentRepo) GetByPostID(ctx context.Context, postID string) ([]entity.Comment, error) {
	return nil, nil
}

func (r *storeCommentRepo) LikedCommentIDs(ctx context.Context, memberID string, commentIDs []string) (map[string]struct{}, error) {
	return map[string]struct{}{}, nil
}

func (r *storeCommentRepo) DeleteByPostID(ctx context.Context, postID string) error {
	return nil
}
