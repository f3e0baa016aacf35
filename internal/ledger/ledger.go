// Package ledger is the durable, append-only, time-ordered message log
// that gives the assistant conversational memory across stateless
// requests.
package ledger

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"benefits-assistant/internal/common/database"
	commonerrors "benefits-assistant/internal/common/errors"
	"benefits-assistant/internal/common/logger"
	"benefits-assistant/internal/common/metrics"
	"benefits-assistant/internal/models"
)

// Store is the session ledger contract: append, ordered forward read,
// and bulk delete, all partitioned by session.
type Store interface {
	Append(ctx context.Context, sessionID string, role models.Role, content string) (models.Message, error)
	History(ctx context.Context, sessionID string) ([]models.Message, error)
	Clear(ctx context.Context, sessionID string) error
}

const keyPrefix = "chat:session:"

// RedisLedger keeps each session's messages in a sorted set scored by a
// per-session INCR sequence. The sequence is the message timestamp, so
// two racing appends for the same session can never collide and reads
// come back in strict insertion order.
type RedisLedger struct {
	rdb    *redis.Client
	logger logger.Logger
}

func NewRedisLedger(client *database.RedisClient, log logger.Logger) *RedisLedger {
	return &RedisLedger{
		rdb: client.GetClient(),
		logger: log.With(map[string]interface{}{
			"component": "ledger",
		}),
	}
}

func messagesKey(sessionID string) string {
	return keyPrefix + sessionID + ":messages"
}

func seqKey(sessionID string) string {
	return keyPrefix + sessionID + ":seq"
}

// Append writes one message to the session's ledger and returns it with
// its allocated timestamp.
func (l *RedisLedger) Append(ctx context.Context, sessionID string, role models.Role, content string) (models.Message, error) {
	seq, err := l.rdb.Incr(ctx, seqKey(sessionID)).Result()
	if err != nil {
		return models.Message{}, commonerrors.NewLedgerWriteFailedError(sessionID, err)
	}

	msg := models.Message{
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Timestamp: seq,
		CreatedAt: time.Now().UTC(),
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return models.Message{}, commonerrors.NewLedgerWriteFailedError(sessionID, err)
	}

	if err := l.rdb.ZAdd(ctx, messagesKey(sessionID), redis.Z{
		Score:  float64(seq),
		Member: payload,
	}).Err(); err != nil {
		return models.Message{}, commonerrors.NewLedgerWriteFailedError(sessionID, err)
	}

	metrics.LedgerWrites.WithLabelValues(string(role)).Inc()
	l.logger.Debug("message appended", map[string]interface{}{
		"sessionId": sessionID,
		"role":      role,
		"timestamp": seq,
	})
	return msg, nil
}

// History returns the session's messages in forward timestamp order.
// An unknown session yields an empty history, not an error.
func (l *RedisLedger) History(ctx context.Context, sessionID string) ([]models.Message, error) {
	raw, err := l.rdb.ZRange(ctx, messagesKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, commonerrors.NewLedgerReadFailedError(sessionID, err)
	}

	messages := make([]models.Message, 0, len(raw))
	for _, item := range raw {
		var msg models.Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			l.logger.Warn("skipping undecodable ledger entry", map[string]interface{}{
				"sessionId": sessionID,
				"error":     err.Error(),
			})
			continue
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// Clear deletes every message for the session along with its sequence
// counter. This is the only non-append mutation the ledger allows.
func (l *RedisLedger) Clear(ctx context.Context, sessionID string) error {
	if err := l.rdb.Del(ctx, messagesKey(sessionID), seqKey(sessionID)).Err(); err != nil {
		return commonerrors.NewLedgerWriteFailedError(sessionID, err)
	}
	l.logger.Info("session cleared", map[string]interface{}{
		"sessionId": sessionID,
	})
	return nil
}
