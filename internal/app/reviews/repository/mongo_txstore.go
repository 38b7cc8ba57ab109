package repository

import (
	"context"
	"errors"
	"fmt"

	"rowanberries/pkg/metrics"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// mongoTxStore реализует TxStore поверх MongoDB: CAS по version-полю
// каждого документа внутри серверной транзакции. Никаких блокировок -
// конфликт обнаруживается на коммите и приводит к ретраю всего цикла.
type mongoTxStore struct {
	client     *mongo.Client
	db         *mongo.Database
	maxRetries int
	service    string
}

// NewMongoTxStore создает транзакционное хранилище поверх MongoDB
func NewMongoTxStore(client *mongo.Client, db *mongo.Database, maxRetries int) TxStore {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &mongoTxStore{
		client:     client,
		db:         db,
		maxRetries: maxRetries,
		service:    "reviews-service",
	}
}

func (s *mongoTxStore) RunAtomically(ctx context.Context, op string, readKeys []DocKey, body TxBody) error {
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		metrics.RecordTxAttempt(s.service, op)

		err := s.attempt(ctx, readKeys, body)
		if err == nil {
			return nil
		}
		if errors.Is(err, errConflict) || isTransientTxError(err) {
			metrics.RecordTxConflict(s.service, op)
			continue
		}
		return err
	}

	metrics.RecordTxExhausted(s.service, op)
	return ErrConflictExceeded
}

// attempt - один цикл чтение-вычисление-коммит
func (s *mongoTxStore) attempt(ctx context.Context, readKeys []DocKey, body TxBody) error {
	reads := make(map[DocKey]*Doc, len(readKeys))
	for _, key := range readKeys {
		doc, err := s.readOne(ctx, key)
		if err != nil {
			return err
		}
		reads[key] = doc
	}

	ws, err := body(reads)
	if err != nil {
		return err
	}
	if ws.Empty() {
		return nil
	}

	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start mongo session: %w", err)
	}
	defer session.EndSession(ctx)

	txnOpts := options.Transaction().SetWriteConcern(writeconcern.Majority())

	return mongo.WithSession(ctx, session, func(sc mongo.SessionContext) error {
		if err := session.StartTransaction(txnOpts); err != nil {
			return fmt.Errorf("failed to start transaction: %w", err)
		}

		if err := s.applyWrites(sc, reads, ws); err != nil {
			_ = session.AbortTransaction(sc)
			return err
		}

		if err := session.CommitTransaction(sc); err != nil {
			return err
		}
		return nil
	})
}

func (s *mongoTxStore) readOne(ctx context.Context, key DocKey) (*Doc, error) {
	timer := metrics.NewDbTimer(s.service, metrics.DbOpFind, key.Collection)
	defer timer.ObserveDuration()

	var raw bson.Raw
	err := s.db.Collection(key.Collection).FindOne(ctx, bson.M{"_id": key.ID}).Decode(&raw)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		metrics.RecordDbError(s.service, metrics.DbOpFind)
		return nil, fmt.Errorf("failed to read document %s: %w", key, err)
	}

	var meta struct {
		Version int64 `bson:"version"`
	}
	if err := bson.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", key, err)
	}

	return &Doc{Key: key, Version: meta.Version, Data: raw}, nil
}

// applyWrites выполняет условные записи внутри транзакции. Каждая запись
// и каждая валидация прочитанного документа привязана к версии из снимка,
// поэтому коммит проходит только при неизменном read set.
func (s *mongoTxStore) applyWrites(sc mongo.SessionContext, reads map[DocKey]*Doc, ws *WriteSet) error {
	// Прочитанные, но не записываемые документы фиксируем no-op записью
	// той же версии: конкурентное изменение снимает matched count в ноль
	for key, read := range reads {
		if read == nil {
			continue
		}
		if _, ok := ws.puts[key]; ok {
			continue
		}
		if _, ok := ws.deletes[key]; ok {
			continue
		}

		res, err := s.db.Collection(key.Collection).UpdateOne(sc,
			bson.M{"_id": key.ID, "version": read.Version},
			bson.M{"$set": bson.M{"version": read.Version}},
		)
		if err != nil {
			return fmt.Errorf("failed to validate document %s: %w", key, err)
		}
		if res.MatchedCount == 0 {
			return errConflict
		}
	}

	for key, val := range ws.puts {
		read, ok := reads[key]
		if !ok {
			return fmt.Errorf("transaction writes key %s outside of its read set", key)
		}

		if read == nil {
			doc, err := encodeDoc(key, 1, val)
			if err != nil {
				return err
			}
			if _, err := s.db.Collection(key.Collection).InsertOne(sc, doc); err != nil {
				if mongo.IsDuplicateKeyError(err) {
					// Документ появился после нашего чтения
					return errConflict
				}
				return fmt.Errorf("failed to insert document %s: %w", key, err)
			}
			continue
		}

		doc, err := encodeDoc(key, read.Version+1, val)
		if err != nil {
			return err
		}
		res, err := s.db.Collection(key.Collection).ReplaceOne(sc,
			bson.M{"_id": key.ID, "version": read.Version},
			doc,
		)
		if err != nil {
			return fmt.Errorf("failed to replace document %s: %w", key, err)
		}
		if res.MatchedCount == 0 {
			return errConflict
		}
	}

	for key := range ws.deletes {
		read, ok := reads[key]
		if !ok {
			return fmt.Errorf("transaction deletes key %s outside of its read set", key)
		}
		if read == nil {
			continue
		}

		res, err := s.db.Collection(key.Collection).DeleteOne(sc,
			bson.M{"_id": key.ID, "version": read.Version},
		)
		if err != nil {
			return fmt.Errorf("failed to delete document %s: %w", key, err)
		}
		if res.DeletedCount == 0 {
			return errConflict
		}
	}

	return nil
}

// isTransientTxError распознает транзиентные ошибки mongo-транзакций
// (write conflict и подобные) - их лечит ретрай всего цикла
func isTransientTxError(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.HasErrorLabel("TransientTransactionError")
	}
	return false
}
