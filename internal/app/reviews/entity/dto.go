package entity

// SignUpRequest - запрос на регистрацию участника
type SignUpRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest - запрос на вход
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse - ответ с токеном доступа
type AuthResponse struct {
	AccessToken string     `json:"access_token"`
	Member      MemberInfo `json:"member"`
}

// MemberInfo - публичные данные участника
type MemberInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// CreatePostRequest - запрос на публикацию поста
type CreatePostRequest struct {
	Title    string `json:"title" validate:"required,min=1,max=200"`
	Body     string `json:"body" validate:"required,min=1,max=20000"`
	ImageURL string `json:"image_url" validate:"omitempty,url"`
}

// SubmitRatingRequest - запрос на выставление оценки
type SubmitRatingRequest struct {
	Value int `json:"value" validate:"required,min=1,max=5"`
}

// AddCommentRequest - запрос на добавление комментария
type AddCommentRequest struct {
	Text string `json:"text" validate:"required,min=1,max=2000"`
}

// CommentView - комментарий вместе с признаком лайка текущего участника
type CommentView struct {
	Comment
	Liked bool `json:"liked"`
}

// CommentListResponse - ответ со списком комментариев
type CommentListResponse struct {
	Comments []CommentView `json:"comments"`
	Total    int           `json:"total"`
}

// ErrorResponse - стандартный ответ об ошибке
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
