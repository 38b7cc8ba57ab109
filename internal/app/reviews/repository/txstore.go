package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

// Коллекции документного хранилища
const (
	CollPosts     = "posts"
	CollRatings   = "ratings"
	CollComments  = "comments"
	CollLikes     = "likes"
	CollUsernames = "usernames"
)

var (
	// ErrConflictExceeded - транзакция исчерпала лимит ретраев из-за
	// конкурентных изменений; операцию можно безопасно повторить целиком
	ErrConflictExceeded = errors.New("optimistic transaction retry limit exceeded")

	// errConflict - внутренний сигнал конфликта версий, приводит к ретраю
	errConflict = errors.New("document version conflict")
)

// DocKey - адрес документа в хранилище
type DocKey struct {
	Collection string
	ID         string
}

func (k DocKey) String() string {
	return k.Collection + "/" + k.ID
}

// Doc - прочитанный снимок документа: версия на момент чтения плюс сырые данные
type Doc struct {
	Key     DocKey
	Version int64
	Data    bson.Raw
}

// Decode десериализует снимок документа в структуру
func (d *Doc) Decode(v interface{}) error {
	if err := bson.Unmarshal(d.Data, v); err != nil {
		return fmt.Errorf("failed to decode document %s: %w", d.Key, err)
	}
	return nil
}

// WriteSet - набор записей, применяемых одним атомарным коммитом
type WriteSet struct {
	puts    map[DocKey]interface{}
	deletes map[DocKey]struct{}
}

func NewWriteSet() *WriteSet {
	return &WriteSet{
		puts:    make(map[DocKey]interface{}),
		deletes: make(map[DocKey]struct{}),
	}
}

// Put ставит в очередь запись документа целиком
func (w *WriteSet) Put(key DocKey, val interface{}) {
	delete(w.deletes, key)
	w.puts[key] = val
}

// Delete ставит в очередь удаление документа
func (w *WriteSet) Delete(key DocKey) {
	delete(w.puts, key)
	w.deletes[key] = struct{}{}
}

func (w *WriteSet) Empty() bool {
	return w == nil || (len(w.puts) == 0 && len(w.deletes) == 0)
}

// TxBody вычисляет записи по прочитанному снимку. Тело обязано быть чистым
// (без I/O и побочных эффектов): при конфликте версий оно вызывается повторно
// с новым снимком. Отсутствующий документ представлен в reads значением nil.
// Ошибка из тела отменяет транзакцию без единой записи и возвращается
// вызывающему без ретраев.
type TxBody func(reads map[DocKey]*Doc) (*WriteSet, error)

// TxStore - атомарный read-modify-write примитив над документным хранилищем.
// Единственная точка сериализации конкурентных мутаций: никаких других
// блокировок в сервисах нет.
type TxStore interface {
	// RunAtomically читает все readKeys одним согласованным снимком,
	// вычисляет записи через body и коммитит их только если ни один из
	// прочитанных документов не был изменён между чтением и коммитом.
	// При конфликте повторяет весь цикл чтение-вычисление-запись,
	// после исчерпания лимита возвращает ErrConflictExceeded.
	// op - имя операции для метрик.
	RunAtomically(ctx context.Context, op string, readKeys []DocKey, body TxBody) error
}

// encodeDoc собирает документ к записи: полезная нагрузка плюс служебные
// поля _id и version поверх неё
func encodeDoc(key DocKey, version int64, val interface{}) (bson.M, error) {
	raw, err := bson.Marshal(val)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document %s: %w", key, err)
	}

	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("failed to rebuild document %s: %w", key, err)
	}

	m["_id"] = key.ID
	m["version"] = version
	return m, nil
}
