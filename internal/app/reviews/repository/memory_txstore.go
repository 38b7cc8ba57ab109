package repository

import (
	"context"
	"fmt"
	"sync"

	"rowanberries/pkg/metrics"

	"go.mongodb.org/mongo-driver/bson"
)

type memDoc struct {
	version int64
	data    bson.Raw
}

// MemoryTxStore - реализация TxStore поверх map в памяти с той же
// CAS-валидацией версий на коммите, что и у Mongo-реализации.
// Используется в тестах и в локальном режиме (STORE_BACKEND=memory).
type MemoryTxStore struct {
	mu         sync.Mutex
	docs       map[DocKey]memDoc
	maxRetries int
	service    string
}

func NewMemoryTxStore(maxRetries int) *MemoryTxStore {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &MemoryTxStore{
		docs:       make(map[DocKey]memDoc),
		maxRetries: maxRetries,
		service:    "reviews-service",
	}
}

func (s *MemoryTxStore) RunAtomically(ctx context.Context, op string, readKeys []DocKey, body TxBody) error {
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		metrics.RecordTxAttempt(s.service, op)

		reads := s.snapshot(readKeys)

		ws, err := body(reads)
		if err != nil {
			return err
		}
		if ws.Empty() {
			return nil
		}

		committed, err := s.commit(reads, ws)
		if err != nil {
			return err
		}
		if committed {
			return nil
		}

		metrics.RecordTxConflict(s.service, op)
	}

	metrics.RecordTxExhausted(s.service, op)
	return ErrConflictExceeded
}

// snapshot читает все ключи под одной блокировкой - это и есть
// согласованный снимок
func (s *MemoryTxStore) snapshot(readKeys []DocKey) map[DocKey]*Doc {
	s.mu.Lock()
	defer s.mu.Unlock()

	reads := make(map[DocKey]*Doc, len(readKeys))
	for _, key := range readKeys {
		stored, ok := s.docs[key]
		if !ok {
			reads[key] = nil
			continue
		}
		reads[key] = &Doc{Key: key, Version: stored.version, Data: stored.data}
	}
	return reads
}

// commit применяет записи, только если каждый прочитанный документ
// не изменился: присутствовавший - та же версия, отсутствовавший -
// по-прежнему отсутствует
func (s *MemoryTxStore) commit(reads map[DocKey]*Doc, ws *WriteSet) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, read := range reads {
		stored, ok := s.docs[key]
		if read == nil {
			if ok {
				return false, nil
			}
			continue
		}
		if !ok || stored.version != read.Version {
			return false, nil
		}
	}

	// Весь write set проверяется до применения, чтобы не оставить
	// частичный коммит
	for key := range ws.puts {
		if _, ok := reads[key]; !ok {
			return false, fmt.Errorf("transaction writes key %s outside of its read set", key)
		}
	}
	for key := range ws.deletes {
		if _, ok := reads[key]; !ok {
			return false, fmt.Errorf("transaction deletes key %s outside of its read set", key)
		}
	}

	for key, val := range ws.puts {
		var next int64 = 1
		if read := reads[key]; read != nil {
			next = read.Version + 1
		}

		m, err := encodeDoc(key, next, val)
		if err != nil {
			return false, err
		}
		raw, err := bson.Marshal(m)
		if err != nil {
			return false, fmt.Errorf("failed to marshal document %s: %w", key, err)
		}
		s.docs[key] = memDoc{version: next, data: raw}
	}

	for key := range ws.deletes {
		delete(s.docs, key)
	}

	return true, nil
}

// Seed кладёт документ напрямую, минуя транзакцию. Для фикстур в тестах
// и начальных данных локального режима.
func (s *MemoryTxStore) Seed(key DocKey, val interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := encodeDoc(key, 1, val)
	if err != nil {
		return err
	}
	raw, err := bson.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal document %s: %w", key, err)
	}
	s.docs[key] = memDoc{version: 1, data: raw}
	return nil
}

// Get читает документ напрямую, минуя транзакцию. Для проверок в тестах.
func (s *MemoryTxStore) Get(key DocKey, v interface{}) (bool, error) {
	s.mu.Lock()
	stored, ok := s.docs[key]
	s.mu.Unlock()

	if !ok {
		return false, nil
	}
	if v == nil {
		return true, nil
	}
	if err := bson.Unmarshal(stored.data, v); err != nil {
		return true, fmt.Errorf("failed to decode document %s: %w", key, err)
	}
	return true, nil
}
