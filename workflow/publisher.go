package workflow

import (
	"context"
	"time"

	"github.com/mmdatafocus/books_valuation/config"
	"github.com/mmdatafocus/books_valuation/utils"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("books-valuation/workflow")

// Publisher sends committed documents to the accounting topic.
type Publisher interface {
	Publish(ctx context.Context, msg config.PubSubMessage) (string, error)
}

// publishCommitted runs after the transaction commits. A failed publish is logged and
// does not undo the save.
func publishCommitted(ctx context.Context, logger *logrus.Logger, publisher Publisher, msg config.PubSubMessage) {
	if publisher == nil {
		return
	}
	if correlationId, ok := utils.GetCorrelationIdFromContext(ctx); ok {
		msg.CorrelationId = correlationId
	}
	msg.TransactionDateTime = time.Now().UTC()
	messageId, err := publisher.Publish(ctx, msg)
	if err != nil {
		config.LogError(logger, "publisher.go", "publishCommitted", "Publish", msg.ReferenceType, err)
		return
	}
	logger.WithFields(logrus.Fields{
		"message_id":     messageId,
		"reference_type": msg.ReferenceType,
		"reference_id":   msg.ReferenceId,
	}).Info("published")
}
