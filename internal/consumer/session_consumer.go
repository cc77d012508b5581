package consumer

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/Eursukkul/studio-booking/internal/models"
	"github.com/Eursukkul/studio-booking/pkg/logger"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// SessionSyncer is satisfied by service.SessionService.
type SessionSyncer interface {
	SyncSession(ctx context.Context, session *models.ClassSession) error
}

// sessionMessage is the snapshot published by the scheduling side on session.*.
type sessionMessage struct {
	ID             uuid.UUID            `json:"id"`
	ClassName      string               `json:"class_name"`
	InstructorName string               `json:"instructor_name"`
	Room           string               `json:"room"`
	StartsAt       time.Time            `json:"starts_at"`
	EndsAt         time.Time            `json:"ends_at"`
	MaxCapacity    int                  `json:"max_capacity"`
	Price          float64              `json:"price"`
	Status         models.SessionStatus `json:"status"`
	Notes          string               `json:"notes"`
}

func (m sessionMessage) toModel() *models.ClassSession {
	return &models.ClassSession{
		ID:             m.ID,
		ClassName:      m.ClassName,
		InstructorName: m.InstructorName,
		Room:           m.Room,
		StartsAt:       m.StartsAt,
		EndsAt:         m.EndsAt,
		MaxCapacity:    m.MaxCapacity,
		Price:          m.Price,
		Status:         m.Status,
		Notes:          m.Notes,
	}
}

type SessionConsumer struct {
	sessions SessionSyncer
	log      *slog.Logger
}

func NewSessionConsumer(sessions SessionSyncer, log *slog.Logger) *SessionConsumer {
	return &SessionConsumer{sessions: sessions, log: logger.Component(log, "session-consumer")}
}

// Start upserts every session snapshot into the local database until msgs is
// closed or ctx is done. done is closed when the loop exits.
func (sc *SessionConsumer) Start(ctx context.Context, msgs <-chan amqp.Delivery) (done <-chan struct{}) {
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		for {
			select {
			case <-ctx.Done():
				sc.log.Info("context done, stopping consumer")
				return
			case msg, ok := <-msgs:
				if !ok {
					sc.log.Info("channel closed, stopping consumer")
					return
				}
				sc.handleMessage(ctx, msg)
			}
		}
	}()
	return finished
}

func (sc *SessionConsumer) handleMessage(ctx context.Context, msg amqp.Delivery) {
	var m sessionMessage
	if err := json.Unmarshal(msg.Body, &m); err != nil {
		sc.log.Warn("dropping undecodable message", "routing_key", msg.RoutingKey, "err", err)
		msg.Nack(false, false)
		return
	}
	if m.ID == uuid.Nil || m.MaxCapacity <= 0 {
		sc.log.Warn("dropping invalid session snapshot", "session_id", m.ID, "max_capacity", m.MaxCapacity)
		msg.Nack(false, false)
		return
	}

	if err := sc.sessions.SyncSession(ctx, m.toModel()); err != nil {
		sc.log.Error("failed to sync session", "session_id", m.ID, "err", err)
		msg.Nack(false, true) // requeue
		return
	}

	sc.log.Info("synced session", "session_id", m.ID, "class", m.ClassName, "status", m.Status)
	msg.Ack(false)
}
