package writer

import (
	"context"
	"encoding/json"
	"fmt"

	kafka "github.com/segmentio/kafka-go"

	appconfig "tradewatch/config"
	"tradewatch/logger"
	"tradewatch/models"
)

// KafkaPublisher pushes each snapshot's activity feed to a Kafka topic, one
// message per item keyed by symbol so downstream consumers can partition by
// instrument.
type KafkaPublisher struct {
	config *appconfig.Config
	writer *kafka.Writer
	log    *logger.Log
}

func NewKafkaPublisher(cfg *appconfig.Config) (*KafkaPublisher, error) {
	if len(cfg.Storage.Kafka.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers not configured")
	}
	kp := &KafkaPublisher{
		config: cfg,
		writer: &kafka.Writer{
			Addr:     kafka.TCP(cfg.Storage.Kafka.Brokers...),
			Topic:    cfg.Storage.Kafka.Topic,
			Balancer: &kafka.LeastBytes{},
		},
		log: logger.GetLogger(),
	}
	kp.log.WithComponent("kafka_writer").WithFields(logger.Fields{
		"brokers": cfg.Storage.Kafka.Brokers,
		"topic":   cfg.Storage.Kafka.Topic,
	}).Debug("kafka publisher initialized")
	return kp, nil
}

// Publish writes every activity item of the snapshot. Item-level envelope
// carries the run id so consumers can tell passes apart.
func (kp *KafkaPublisher) Publish(ctx context.Context, snapshot *models.Snapshot) error {
	if len(snapshot.ActivityFeed) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(snapshot.ActivityFeed))
	total := 0
	for _, item := range snapshot.ActivityFeed {
		payload := struct {
			Competition string              `json:"competition"`
			RunID       string              `json:"run_id"`
			Item        models.ActivityItem `json:"item"`
		}{snapshot.Competition, snapshot.RunID, item}

		data, err := json.Marshal(payload)
		if err != nil {
			kp.log.WithComponent("kafka_writer").WithError(err).Warn("failed to marshal activity item")
			continue
		}
		total += len(data)
		msgs = append(msgs, kafka.Message{
			Key:   []byte(item.Symbol),
			Value: data,
		})
	}

	if err := kp.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write activity feed to kafka: %w", err)
	}
	logger.IncrementKafkaPublish(len(msgs), total)

	kp.log.WithComponent("kafka_writer").WithFields(logger.Fields{
		"run_id":   snapshot.RunID,
		"messages": len(msgs),
	}).Debug("activity feed written to kafka")
	return nil
}

func (kp *KafkaPublisher) Close() {
	kp.writer.Close()
	kp.log.WithComponent("kafka_writer").Debug("kafka publisher closed")
}
