package service

import "errors"

var (
	// Ошибки бизнес-логики для обработки в handlers
	ErrPostNotFound        = errors.New("post not found")
	ErrCommentNotFound     = errors.New("comment not found")
	ErrReservationNotFound = errors.New("username reservation not found")
	ErrInvalidRating       = errors.New("rating value must be between 1 and 5")
	ErrUsernameTooShort    = errors.New("username must be at least 3 characters")
	ErrUsernameTaken       = errors.New("username already taken")
	ErrEmailExists         = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrUnauthorized        = errors.New("unauthorized access to post")

	// ErrInternalConsistency - нарушен инвариант, который не должен быть
	// достижим (например, отрицательный счётчик лайков). Никогда не
	// "чинится" записью скорректированного значения - это маскировало бы баг.
	ErrInternalConsistency = errors.New("internal consistency violation")
)
