package handler

import (
	"context"
	"errors"
	"net/http"

	"rowanberries/internal/app/reviews/entity"
	"rowanberries/internal/app/reviews/repository"
	"rowanberries/internal/app/reviews/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type ContentServiceInterface interface {
	PublishPost(ctx context.Context, authorID string, req *entity.CreatePostRequest) (*entity.Post, error)
	GetPost(ctx context.Context, postID string) (*entity.Post, error)
	ListRecentPosts(ctx context.Context, limit int) ([]entity.Post, error)
	GetRatingSummary(ctx context.Context, postID string) (*entity.RatingSummary, error)
	AddComment(ctx context.Context, postID, authorID string, req *entity.AddCommentRequest) (*entity.Comment, error)
	ListComments(ctx context.Context, postID, memberID string) ([]entity.CommentView, error)
	DeletePost(ctx context.Context, postID, requesterID string) error
}

type RatingServiceInterface interface {
	SubmitRating(ctx context.Context, postID, memberID string, value int) (*entity.RatingSummary, error)
}

type LikeServiceInterface interface {
	ToggleLike(ctx context.Context, commentID, memberID string) (*entity.LikeStatus, error)
}

type ReviewHandler struct {
	contentService ContentServiceInterface
	ratingService  RatingServiceInterface
	likeService    LikeServiceInterface
	validator      *validator.Validate
}

func NewReviewHandler(
	contentService ContentServiceInterface,
	ratingService RatingServiceInterface,
	likeService LikeServiceInterface,
) *ReviewHandler {
	return &ReviewHandler{
		contentService: contentService,
		ratingService:  ratingService,
		likeService:    likeService,
		validator:      validator.New(),
	}
}

func (h *ReviewHandler) PublishPost(c *gin.Context) {
	memberID, ok := memberIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req entity.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": formatValidationError(err)})
		return
	}

	post, err := h.contentService.PublishPost(c.Request.Context(), memberID, &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to publish post"})
		return
	}

	c.JSON(http.StatusCreated, post)
}

func (h *ReviewHandler) GetPost(c *gin.Context) {
	postID := c.Param("post_id")

	post, err := h.contentService.GetPost(c.Request.Context(), postID)
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get post"})
		return
	}

	c.JSON(http.StatusOK, post)
}

func (h *ReviewHandler) ListPosts(c *gin.Context) {
	posts, err := h.contentService.ListRecentPosts(c.Request.Context(), 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list posts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"posts": posts, "total": len(posts)})
}

func (h *ReviewHandler) DeletePost(c *gin.Context) {
	memberID, ok := memberIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	postID := c.Param("post_id")

	err := h.contentService.DeletePost(c.Request.Context(), postID, memberID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPostNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		case errors.Is(err, service.ErrUnauthorized):
			c.JSON(http.StatusForbidden, gin.H{"error": "Only the author can delete a post"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete post"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post deleted"})
}

func (h *ReviewHandler) SubmitRating(c *gin.Context) {
	memberID, ok := memberIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	postID := c.Param("post_id")

	var req entity.SubmitRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": formatValidationError(err)})
		return
	}

	summary, err := h.ratingService.SubmitRating(c.Request.Context(), postID, memberID, req.Value)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPostNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		case errors.Is(err, service.ErrInvalidRating):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Rating value must be between 1 and 5"})
		case errors.Is(err, repository.ErrConflictExceeded):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Too much contention, please try again"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit rating"})
		}
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *ReviewHandler) GetRatingSummary(c *gin.Context) {
	postID := c.Param("post_id")

	summary, err := h.contentService.GetRatingSummary(c.Request.Context(), postID)
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get rating summary"})
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *ReviewHandler) AddComment(c *gin.Context) {
	memberID, ok := memberIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	postID := c.Param("post_id")

	var req entity.AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": formatValidationError(err)})
		return
	}

	comment, err := h.contentService.AddComment(c.Request.Context(), postID, memberID, &req)
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add comment"})
		return
	}

	c.JSON(http.StatusCreated, comment)
}

func (h *ReviewHandler) ListComments(c *gin.Context) {
	postID := c.Param("post_id")
	// Пустой member_id допустим: список вернётся без персональных лайков
	memberID, _ := memberIDFromContext(c)

	comments, err := h.contentService.ListComments(c.Request.Context(), postID, memberID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list comments"})
		return
	}

	c.JSON(http.StatusOK, entity.CommentListResponse{Comments: comments, Total: len(comments)})
}

func (h *ReviewHandler) ToggleLike(c *gin.Context) {
	memberID, ok := memberIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	commentID := c.Param("comment_id")

	status, err := h.likeService.ToggleLike(c.Request.Context(), commentID, memberID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCommentNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
		case errors.Is(err, repository.ErrConflictExceeded):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Too much contention, please try again"})
		case errors.Is(err, service.ErrInternalConsistency):
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to toggle like"})
		}
		return
	}

	c.JSON(http.StatusOK, status)
}

func formatValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		fe := validationErrors[0]
		return "Validation failed on field '" + fe.Field() + "' (" + fe.Tag() + ")"
	}
	return "Validation failed"
}
