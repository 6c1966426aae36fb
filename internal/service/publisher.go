// internal/service/publisher.go
package service

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"finflow-transfer/internal/domain"
	"finflow-transfer/internal/util"
)

// KafkaWriter abstracts *kafka.Writer.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// publishTransaction publishes a committed transaction, keyed by its id.
// Publishing is best effort: the transaction log is the record of truth.
func (s *transferService) publishTransaction(ctx context.Context, txn *domain.Transaction) {
	if s.kafkaWriter == nil {
		util.GetLogger().Debugw("Kafka writer not configured, skipping publishing", "transaction_id", txn.ID)
		return
	}

	data, err := json.Marshal(txn)
	if err != nil {
		util.GetLogger().Errorw("Failed to marshal transaction for Kafka", "transaction_id", txn.ID, "error", err)
		return
	}

	ctx, cancel := s.withTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(txn.ID.String()),
		Value: data,
	}
	if err := s.kafkaWriter.WriteMessages(ctx, msg); err != nil {
		util.GetLogger().Errorw("Failed to publish transaction to Kafka", "transaction_id", txn.ID, "error", err)
		return
	}
	util.GetLogger().Debugw("Transaction published to Kafka", "transaction_id", txn.ID)
}
