package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"rowanberries/internal/app/reviews/entity"
	"rowanberries/internal/app/reviews/infrastructure"
	"rowanberries/internal/app/reviews/repository"
	"rowanberries/internal/app/reviews/util"
	"rowanberries/pkg/logger"
	"rowanberries/pkg/metrics"

	"github.com/google/uuid"
)

// SignupService оркестрирует регистрацию: резервирование username,
// создание аккаунта в PostgreSQL и подтверждение резервации.
// Создание аккаунта нельзя включить в транзакцию документного хранилища,
// отсюда двухфазный протокол с компенсацией.
type SignupService struct {
	members    repository.MemberRepository
	usernames  UsernameReserver
	jwtManager *util.JWTManager
	publisher  infrastructure.MessagePublisher
}

// NewSignupService создает новый сервис регистрации с внедрением зависимостей
func NewSignupService(
	members repository.MemberRepository,
	usernames UsernameReserver,
	jwtManager *util.JWTManager,
	publisher infrastructure.MessagePublisher,
) *SignupService {
	return &SignupService{
		members:    members,
		usernames:  usernames,
		jwtManager: jwtManager,
		publisher:  publisher,
	}
}

// SignUp регистрирует нового участника
// 1. Резервирует username (provisional токен)
// 2. Создает аккаунт в PostgreSQL
// 3. Подтверждает резервацию реальным ID участника
// При сбое шага 2 резервация освобождается, чтобы handle не остался
// занят навсегда.
func (s *SignupService) SignUp(ctx context.Context, req *entity.SignUpRequest) (*entity.AuthResponse, error) {
	existing, err := s.members.GetByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, repository.ErrMemberNotFound) {
		return nil, fmt.Errorf("failed to check existing member: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailExists
	}

	// Хэшируем до резервирования: меньше путей, требующих компенсации
	passwordHash, err := util.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	token, err := s.usernames.Reserve(ctx, req.Username)
	if err != nil {
		return nil, err
	}

	member := &entity.Member{
		ID:           uuid.New(),
		Email:        req.Email,
		Username:     NormalizeHandle(req.Username),
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}

	if err := s.members.Create(ctx, member); err != nil {
		// Компенсация: освобождаем handle, раз аккаунт не появился
		if relErr := s.usernames.Release(ctx, token); relErr != nil {
			logger.Error().Err(relErr).
				Str("username", member.Username).
				Msg("failed to release username reservation after member create failure")
		}
		return nil, fmt.Errorf("failed to create member: %w", err)
	}

	if err := s.usernames.Confirm(ctx, token, member.ID.String()); err != nil {
		// Аккаунт уже создан; резервацию доподтвердит только ручной
		// разбор, но регистрацию не откатываем
		logger.Error().Err(err).
			Str("member_id", member.ID.String()).
			Str("username", member.Username).
			Msg("failed to confirm username reservation")
	}

	metrics.MembersRegistered.Inc()
	s.publishMemberEvent(ctx, entity.MemberEvent{
		EventType: entity.EventMemberRegistered,
		MemberID:  member.ID.String(),
		Username:  member.Username,
		Timestamp: time.Now(),
	})

	return s.buildAuthResponse(member)
}

// Login выполняет вход участника
func (s *SignupService) Login(ctx context.Context, req *entity.LoginRequest) (*entity.AuthResponse, error) {
	member, err := s.members.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrMemberNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get member: %w", err)
	}

	if !util.CheckPassword(req.Password, member.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return s.buildAuthResponse(member)
}

func (s *SignupService) buildAuthResponse(member *entity.Member) (*entity.AuthResponse, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(member.ID, member.Email, member.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &entity.AuthResponse{
		AccessToken: accessToken,
		Member: entity.MemberInfo{
			ID:       member.ID.String(),
			Username: member.Username,
			Email:    member.Email,
		},
	}, nil
}

func (s *SignupService) publishMemberEvent(ctx context.Context, event entity.MemberEvent) {
	eventData, err := json.Marshal(event)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to marshal member event")
		return
	}

	if err := s.publisher.PublishMessage(ctx, event.MemberID, eventData); err != nil {
		logger.Warn().Err(err).Str("member_id", event.MemberID).Msg("failed to publish member event")
	}
}
