package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"COEAnalytics/internal/domain/models"
	domrepo "COEAnalytics/internal/domain/repository"
	"COEAnalytics/internal/services/bidstats"
	pkgkafka "COEAnalytics/pkg/kafka"
)

// KafkaBidsHandler consumes raw batches and feeds them to ingestion.
type KafkaBidsHandler struct {
	topic   string
	ingest  *IngestUseCase
	metrics domrepo.Metrics
}

func NewKafkaBidsHandler(topic string, ingest *IngestUseCase, metrics domrepo.Metrics) *KafkaBidsHandler {
	return &KafkaBidsHandler{topic: topic, ingest: ingest, metrics: metrics}
}

func (h *KafkaBidsHandler) Topic() string { return h.topic }

// incoming message schema: {"batch_id": "...", "source": "...", "rows": [{...}]}
func (h *KafkaBidsHandler) Handle(ctx context.Context, b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var batch models.RawBatch
	if err := dec.Decode(&batch); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return fmt.Errorf("%w: decode batch: %v", pkgkafka.ErrPermanent, err)
	}
	if batch.Source == "" {
		batch.Source = "kafka"
	}

	_, err := h.ingest.Ingest(ctx, batch)
	var se *bidstats.SchemaError
	if errors.As(err, &se) {
		return fmt.Errorf("%w: %v", pkgkafka.ErrPermanent, err)
	}
	return err
}

var _ pkgkafka.MessageHandler = (*KafkaBidsHandler)(nil)
