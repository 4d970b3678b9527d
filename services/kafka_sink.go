package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/aimoney/aimoney-api/logger"
	"github.com/aimoney/aimoney-api/models"
	"go.uber.org/zap"
)

// NewKafkaProducer creates a synchronous producer for the given brokers
func NewKafkaProducer(brokers []string) (sarama.SyncProducer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	// retries live in the dispatcher
	config.Producer.Retry.Max = 0

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	logger.L().Info("Kafka producer initialized", zap.Strings("brokers", brokers))
	return producer, nil
}

// KafkaTranscriptSink publishes transcript entries to a topic, keyed by session
// so one conversation stays on one partition.
type KafkaTranscriptSink struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaTranscriptSink wraps a producer as a transcript sink
func NewKafkaTranscriptSink(producer sarama.SyncProducer, topic string) *KafkaTranscriptSink {
	return &KafkaTranscriptSink{producer: producer, topic: topic}
}

func (k *KafkaTranscriptSink) Append(ctx context.Context, entry models.TranscriptEntry) error {
	value, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal transcript entry: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(entry.SessionID),
		Value: sarama.ByteEncoder(value),
	}

	partition, offset, err := k.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to publish transcript entry: %w", err)
	}

	logger.FromCtx(ctx).Debug("Transcript entry published",
		zap.String("topic", k.topic),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)
	return nil
}
