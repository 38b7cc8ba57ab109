package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"rowanberries/internal/app/reviews/entity"
	"rowanberries/internal/app/reviews/repository"
	"rowanberries/internal/app/reviews/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockContentService struct {
	mock.Mock
}

func (m *MockContentService) PublishPost(ctx context.Context, authorID string, req *entity.CreatePostRequest) (*entity.Post, error) {
	args := m.Called(ctx, authorID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Post), args.Error(1)
}

func (m *MockContentService) GetPost(ctx context.Context, postID string) (*entity.Post, error) {
	args := m.Called(ctx, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Post), args.Error(1)
}

func (m *MockContentService) ListRecentPosts(ctx context.Context, limit int) ([]entity.Post, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Post), args.Error(1)
}

func (m *MockContentService) GetRatingSummary(ctx context.Context, postID string) (*entity.RatingSummary, error) {
	args := m.Called(ctx, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.RatingSummary), args.Error(1)
}

func (m *MockContentService) AddComment(ctx context.Context, postID, authorID string, req *entity.AddCommentRequest) (*entity.Comment, error) {
	args := m.Called(ctx, postID, authorID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Comment), args.Error(1)
}

func (m *MockContentService) ListComments(ctx context.Context, postID, memberID string) ([]entity.CommentView, error) {
	args := m.Called(ctx, postID, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.CommentView), args.Error(1)
}

func (m *MockContentService) DeletePost(ctx context.Context, postID, requesterID string) error {
	args := m.Called(ctx, postID, requesterID)
	return args.Error(0)
}

type MockRatingService struct {
	mock.Mock
}

func (m *MockRatingService) SubmitRating(ctx context.Context, postID, memberID string, value int) (*entity.RatingSummary, error) {
	args := m.Called(ctx, postID, memberID, value)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.RatingSummary), args.Error(1)
}

type MockLikeService struct {
	mock.Mock
}

func (m *MockLikeService) ToggleLike(ctx context.Context, commentID, memberID string) (*entity.LikeStatus, error) {
	args := m.Called(ctx, commentID, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.LikeStatus), args.Error(1)
}

type reviewHandlerFixture struct {
	router  *gin.Engine
	content *MockContentService
	rating  *MockRatingService
	like    *MockLikeService
}

// setupReviewRouter собирает маршруты с подставным member_id вместо
// полноценной JWT-аутентификации
func setupReviewRouter(memberID string) *reviewHandlerFixture {
	gin.SetMode(gin.TestMode)

	f := &reviewHandlerFixture{
		content: new(MockContentService),
		rating:  new(MockRatingService),
		like:    new(MockLikeService),
	}
	h := NewReviewHandler(f.content, f.rating, f.like)

	router := gin.New()
	if memberID != "" {
		router.Use(func(c *gin.Context) {
			c.Set("member_id", memberID)
			c.Next()
		})
	}

	router.POST("/posts", h.PublishPost)
	router.GET("/posts/:post_id", h.GetPost)
	router.DELETE("/posts/:post_id", h.DeletePost)
	router.POST("/posts/:post_id/ratings", h.SubmitRating)
	router.GET("/posts/:post_id/ratings/summary", h.GetRatingSummary)
	router.POST("/posts/:post_id/comments", h.AddComment)
	router.GET("/posts/:post_id/comments", h.ListComments)
	router.POST("/comments/:comment_id/like", h.ToggleLike)

	f.router = router
	return f
}

func performJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSubmitRating_Handler_Success(t *testing.T) {
	f := setupReviewRouter("member-1")

	summary := &entity.RatingSummary{Average: 4.0, Count: 1}
	f.rating.On("SubmitRating", mock.Anything, "post-1", "member-1", 4).Return(summary, nil)

	w := performJSON(f.router, http.MethodPost, "/posts/post-1/ratings", entity.SubmitRatingRequest{Value: 4})

	assert.Equal(t, http.StatusOK, w.Code)

	var got entity.RatingSummary
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 4.0, got.Average)
	assert.Equal(t, 1, got.Count)
}

func TestSubmitRating_Handler_InvalidValue(t *testing.T) {
	f := setupReviewRouter("member-1")

	w := performJSON(f.router, http.MethodPost, "/posts/post-1/ratings", entity.SubmitRatingRequest{Value: 6})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	f.rating.AssertNotCalled(t, "SubmitRating", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitRating_Handler_Unauthorized(t *testing.T) {
	f := setupReviewRouter("")

	w := performJSON(f.router, http.MethodPost, "/posts/post-1/ratings", entity.SubmitRatingRequest{Value: 4})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSubmitRating_Handler_PostNotFound(t *testing.T) {
	f := setupReviewRouter("member-1")

	f.rating.On("SubmitRating", mock.Anything, "missing", "member-1", 4).Return(nil, service.ErrPostNotFound)

	w := performJSON(f.router, http.MethodPost, "/posts/missing/ratings", entity.SubmitRatingRequest{Value: 4})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubmitRating_Handler_ContentionMapsTo503(t *testing.T) {
	f := setupReviewRouter("member-1")

	f.rating.On("SubmitRating", mock.Anything, "post-1", "member-1", 4).Return(nil, repository.ErrConflictExceeded)

	w := performJSON(f.router, http.MethodPost, "/posts/post-1/ratings", entity.SubmitRatingRequest{Value: 4})

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestToggleLike_Handler_Success(t *testing.T) {
	f := setupReviewRouter("member-1")

	f.like.On("ToggleLike", mock.Anything, "comment-1", "member-1").
		Return(&entity.LikeStatus{Liked: true, LikeCount: 3}, nil)

	w := performJSON(f.router, http.MethodPost, "/comments/comment-1/like", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var got entity.LikeStatus
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.True(t, got.Liked)
	assert.Equal(t, 3, got.LikeCount)
}

func TestToggleLike_Handler_CommentNotFound(t *testing.T) {
	f := setupReviewRouter("member-1")

	f.like.On("ToggleLike", mock.Anything, "missing", "member-1").Return(nil, service.ErrCommentNotFound)

	w := performJSON(f.router, http.MethodPost, "/comments/missing/like", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPublishPost_Handler_Success(t *testing.T) {
	f := setupReviewRouter("member-1")

	post := &entity.Post{ID: "post-1", AuthorID: "member-1", Title: "Title", Body: "Body"}
	f.content.On("PublishPost", mock.Anything, "member-1", mock.AnythingOfType("*entity.CreatePostRequest")).
		Return(post, nil)

	w := performJSON(f.router, http.MethodPost, "/posts", entity.CreatePostRequest{Title: "Title", Body: "Body"})

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestPublishPost_Handler_MissingTitle(t *testing.T) {
	f := setupReviewRouter("member-1")

	w := performJSON(f.router, http.MethodPost, "/posts", entity.CreatePostRequest{Body: "Body"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	f.content.AssertNotCalled(t, "PublishPost", mock.Anything, mock.Anything, mock.Anything)
}

func TestDeletePost_Handler_ForbiddenForNonAuthor(t *testing.T) {
	f := setupReviewRouter("member-2")

	f.content.On("DeletePost", mock.Anything, "post-1", "member-2").Return(service.ErrUnauthorized)

	w := performJSON(f.router, http.MethodDelete, "/posts/post-1", nil)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGetRatingSummary_Handler_Success(t *testing.T) {
	f := setupReviewRouter("")

	f.content.On("GetRatingSummary", mock.Anything, "post-1").
		Return(&entity.RatingSummary{Average: 3.5, Count: 2}, nil)

	w := performJSON(f.router, http.MethodGet, "/posts/post-1/ratings/summary", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var got entity.RatingSummary
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 3.5, got.Average)
}

func TestListComments_Handler_AnonymousPassesEmptyMemberID(t *testing.T) {
	f := setupReviewRouter("")

	f.content.On("ListComments", mock.Anything, "post-1", "").
		Return([]entity.CommentView{}, nil)

	w := performJSON(f.router, http.MethodGet, "/posts/post-1/comments", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	f.content.AssertCalled(t, "ListComments", mock.Anything, "post-1", "")
}

func TestListComments_Handler_ServiceError(t *testing.T) {
	f := setupReviewRouter("member-1")

	f.content.On("ListComments", mock.Anything, "post-1", "member-1").
		Return(nil, errors.New("db down"))

	w := performJSON(f.router, http.MethodGet, "/posts/post-1/comments", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestAddComment_Handler_Success(t *testing.T) {
	f := setupReviewRouter("member-1")

	comment := &entity.Comment{ID: "c1", PostID: "post-1", AuthorID: "member-1", Text: "hi"}
	f.content.On("AddComment", mock.Anything, "post-1", "member-1", mock.AnythingOfType("*entity.AddCommentRequest")).
		Return(comment, nil)

	w := performJSON(f.router, http.MethodPost, "/posts/post-1/comments", entity.AddCommentRequest{Text: "hi"})

	assert.Equal(t, http.StatusCreated, w.Code)
}
