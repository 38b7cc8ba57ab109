package repository

import (
	"context"
	"fmt"
	"time"

	"rowanberries/internal/app/reviews/entity"
	"rowanberries/pkg/metrics"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type reservationRepository struct {
	usernames *mongo.Collection
}

// NewReservationRepository создает репозиторий обслуживающих операций
// над резервациями username. Сами резервации создаются и подтверждаются
// только через TxStore.
func NewReservationRepository(db *mongo.Database) ReservationRepository {
	return &reservationRepository{
		usernames: db.Collection(CollUsernames),
	}
}

// DeleteStaleProvisional удаляет provisional резервации старше cutoff.
// Подтверждённые резервации не трогает: после confirm документ живёт
// столько же, сколько аккаунт.
func (r *reservationRepository) DeleteStaleProvisional(ctx context.Context, cutoff time.Time) (int64, error) {
	timer := metrics.NewDbTimer("reviews-service", metrics.DbOpDelete, CollUsernames)
	defer timer.ObserveDuration()

	filter := bson.M{
		"status":     entity.ReservationProvisional,
		"created_at": bson.M{"$lt": cutoff},
	}

	result, err := r.usernames.DeleteMany(ctx, filter)
	if err != nil {
		metrics.RecordDbError("reviews-service", metrics.DbOpDelete)
		return 0, fmt.Errorf("failed to delete stale reservations: %w", err)
	}

	return result.DeletedCount, nil
}
