package queue

import (
	"context"
	"encoding/json"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/wavelead/crm-engine/internal/entity"
	"github.com/wavelead/crm-engine/internal/infra/http/middleware"
)

// ScoreService is what the worker needs from the scoring engine.
type ScoreService interface {
	RescoreAll(ctx context.Context, userID string) (int, error)
	RescoreLead(ctx context.Context, leadID string) (*entity.ScoreResult, error)
}

type Worker struct {
	Channel *amqp.Channel
	Scores  ScoreService
}

func NewWorker(ch *amqp.Channel, scores ScoreService) *Worker {
	return &Worker{
		Channel: ch,
		Scores:  scores,
	}
}

func (w *Worker) Start(queueName string) {
	msgs, err := w.Channel.Consume(
		queueName,
		"",    // consumer
		false, // auto-ack (manual is safer)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		log.Fatalf("❌ [WORKER] failed to register RabbitMQ consumer: %s", err)
	}

	forever := make(chan bool)

	go func() {
		for d := range msgs {
			var job RescoreJob
			if err := json.Unmarshal(d.Body, &job); err != nil {
				log.Printf("❌ [WORKER] invalid rescore job: %s", err)
				// Malformed message. Reject without requeue so the queue
				// does not jam; it lands on the DLQ.
				d.Nack(false, false)
				continue
			}

			log.Printf("📥 [WORKER] rescoring leads for user %s (trigger: %s)", job.UserID, job.Reason)

			count, err := w.process(context.Background(), job)
			if err != nil {
				log.Printf("❌ [WORKER] rescore failed: %s", err)
				d.Nack(false, false)
				continue
			}

			middleware.RecordRescore(count)
			log.Printf("✅ [WORKER] rescored %d leads for user %s", count, job.UserID)
			d.Ack(false)
		}
	}()

	log.Printf(" [*] Rescore worker running, waiting on queue '%s'", queueName)
	<-forever
}

// process dispatches one job: a LeadID rescore touches just that lead, an
// empty one runs the full pass for the user.
func (w *Worker) process(ctx context.Context, job RescoreJob) (int, error) {
	if job.LeadID != "" {
		if _, err := w.Scores.RescoreLead(ctx, job.LeadID); err != nil {
			return 0, err
		}
		return 1, nil
	}
	return w.Scores.RescoreAll(ctx, job.UserID)
}
