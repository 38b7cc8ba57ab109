package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"rowanberries/internal/app/reviews/entity"
	"rowanberries/internal/app/reviews/repository"
	"rowanberries/pkg/metrics"

	"github.com/google/uuid"
)

const minHandleLength = 3

// UsernameService обеспечивает глобальную уникальность username поверх
// хранилища без родного unique-индекса. Двухфазный протокол:
// Reserve создает заявку с provisional токеном, Confirm после успешного
// создания аккаунта перепривязывает её к реальному ID участника.
// При сбое между фазами заявку освобождает Release (или sweeper по TTL).
type UsernameService struct {
	store repository.TxStore
}

// NewUsernameService создает новый сервис резервирования username
func NewUsernameService(store repository.TxStore) *UsernameService {
	return &UsernameService{store: store}
}

// NormalizeHandle приводит handle к канонической форме:
// без краевых пробелов, в нижнем регистре
func NormalizeHandle(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func usernameKey(handle string) repository.DocKey {
	return repository.DocKey{Collection: repository.CollUsernames, ID: handle}
}

// handleFromToken восстанавливает handle из токена формата "<handle>:<uuid>"
func handleFromToken(token string) (string, bool) {
	idx := strings.LastIndex(token, ":")
	if idx <= 0 {
		return "", false
	}
	return token[:idx], true
}

// Reserve занимает нормализованный handle и возвращает provisional токен.
// Из двух конкурентных Reserve на один handle выигрывает ровно один:
// проигравший видит чужую заявку в том же снимке, что и коммитит победитель.
func (s *UsernameService) Reserve(ctx context.Context, rawHandle string) (string, error) {
	handle := NormalizeHandle(rawHandle)
	if utf8.RuneCountInString(handle) < minHandleLength {
		// Ни одного обращения к хранилищу до валидации
		return "", ErrUsernameTooShort
	}

	token := handle + ":" + uuid.NewString()
	key := usernameKey(handle)

	err := s.store.RunAtomically(ctx, "reserve_username",
		[]repository.DocKey{key},
		func(reads map[repository.DocKey]*repository.Doc) (*repository.WriteSet, error) {
			if reads[key] != nil {
				return nil, ErrUsernameTaken
			}

			ws := repository.NewWriteSet()
			ws.Put(key, &entity.UsernameReservation{
				Handle:    handle,
				OwnerID:   token,
				Status:    entity.ReservationProvisional,
				CreatedAt: time.Now(),
			})
			return ws, nil
		})
	if err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			metrics.UsernamesReserved.WithLabelValues("taken").Inc()
		}
		return "", err
	}

	metrics.UsernamesReserved.WithLabelValues("reserved").Inc()
	return token, nil
}

// Confirm перепривязывает заявку с provisional токена на реальный ID
// участника. Вызывается после успешного создания аккаунта.
func (s *UsernameService) Confirm(ctx context.Context, token string, memberID string) error {
	handle, ok := handleFromToken(token)
	if !ok {
		return ErrReservationNotFound
	}
	key := usernameKey(handle)

	return s.store.RunAtomically(ctx, "confirm_username",
		[]repository.DocKey{key},
		func(reads map[repository.DocKey]*repository.Doc) (*repository.WriteSet, error) {
			doc := reads[key]
			if doc == nil {
				return nil, ErrReservationNotFound
			}

			var res entity.UsernameReservation
			if err := doc.Decode(&res); err != nil {
				return nil, err
			}
			// Токен не совпал: заявка чужая либо уже перепривязана
			if res.OwnerID != token {
				return nil, ErrReservationNotFound
			}

			now := time.Now()
			res.OwnerID = memberID
			res.Status = entity.ReservationConfirmed
			res.ConfirmedAt = &now

			ws := repository.NewWriteSet()
			ws.Put(key, &res)
			return ws, nil
		})
}

// Release удаляет provisional заявку, если она всё ещё принадлежит токену.
// Компенсация на случай сбоя создания аккаунта между Reserve и Confirm:
// без неё handle остался бы занят навсегда. Подтверждённые заявки
// и заявки с другим владельцем не трогает.
func (s *UsernameService) Release(ctx context.Context, token string) error {
	handle, ok := handleFromToken(token)
	if !ok {
		return ErrReservationNotFound
	}
	key := usernameKey(handle)

	return s.store.RunAtomically(ctx, "release_username",
		[]repository.DocKey{key},
		func(reads map[repository.DocKey]*repository.Doc) (*repository.WriteSet, error) {
			doc := reads[key]
			if doc == nil {
				// Уже освобождена (например, sweeper успел раньше)
				return repository.NewWriteSet(), nil
			}

			var res entity.UsernameReservation
			if err := doc.Decode(&res); err != nil {
				return nil, err
			}
			if res.OwnerID != token || res.Status != entity.ReservationProvisional {
				return repository.NewWriteSet(), nil
			}

			ws := repository.NewWriteSet()
			ws.Delete(key)
			return ws, nil
		})
}

// CheckAvailable сообщает, свободен ли handle на момент проверки.
// Ответ чисто информационный: гарантию даёт только Reserve.
func (s *UsernameService) CheckAvailable(ctx context.Context, rawHandle string) (bool, error) {
	handle := NormalizeHandle(rawHandle)
	if utf8.RuneCountInString(handle) < minHandleLength {
		return false, ErrUsernameTooShort
	}
	key := usernameKey(handle)

	available := false
	err := s.store.RunAtomically(ctx, "check_username",
		[]repository.DocKey{key},
		func(reads map[repository.DocKey]*repository.Doc) (*repository.WriteSet, error) {
			available = reads[key] == nil
			return repository.NewWriteSet(), nil
		})
	if err != nil {
		return false, err
	}
	return available, nil
}
