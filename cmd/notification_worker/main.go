package main

import (
	"context"
	"encoding/json"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/ppob-membership/config"
	"github.com/oksasatya/ppob-membership/pkg/helpers"
	"github.com/oksasatya/ppob-membership/pkg/mailer"
)

// Sender delivers one rendered email.
type Sender interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

type outcome int

const (
	ack outcome = iota
	drop
	requeue
)

// handle renders and sends one queued job. Payloads that can never succeed
// are dropped; delivery failures go back on the queue.
func handle(ctx context.Context, sender Sender, logger *logrus.Logger, body []byte) outcome {
	var job mailer.EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		logger.WithError(err).Warn("bad notification payload")
		return drop
	}
	subject, text, html, err := helpers.RenderJob(&job)
	if err != nil {
		logger.WithError(err).WithField("template", job.Template).Warn("render notification failed")
		return drop
	}

	c, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := sender.Send(c, job.To, subject, text, html); err != nil {
		logger.WithError(err).WithField("to", job.To).Error("send notification failed")
		return requeue
	}
	logger.WithFields(logrus.Fields{"to": job.To, "template": job.Template}).Info("notification sent")
	return ack
}

func settle(msg amqp.Delivery, o outcome) error {
	switch o {
	case ack:
		return msg.Ack(false)
	case requeue:
		return msg.Nack(false, true)
	default:
		return msg.Nack(false, false)
	}
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-notification-worker", cfg.Env)

	if !cfg.MailSendEnabled {
		logger.Info("MAIL_SEND_ENABLED=false; notification worker disabled")
		return
	}
	if cfg.RabbitMQURL == "" || cfg.RabbitMQNotificationQueue == "" {
		logger.Fatal("RabbitMQ not configured")
	}
	if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" || cfg.MailgunSender == "" {
		logger.Fatal("Mailgun not configured")
	}

	consumer, err := helpers.NewRabbitConsumer(cfg.RabbitMQURL, cfg.RabbitMQNotificationQueue, 16)
	if err != nil {
		logger.Fatalf("rabbitmq: %v", err)
	}
	defer consumer.Close()

	msgs, err := consumer.Deliveries()
	if err != nil {
		logger.Fatalf("consume: %v", err)
	}

	mg := mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range msgs {
			if err := settle(msg, handle(ctx, mg, logger, msg.Body)); err != nil && !errors.Is(err, amqp.ErrClosed) {
				logger.WithError(err).Warn("settle delivery failed")
			}
		}
	}()

	logger.Infof("notification worker listening on queue=%s", cfg.RabbitMQNotificationQueue)
	select {
	case <-ctx.Done():
	case <-done:
		logger.Warn("delivery channel closed")
		return
	}
	logger.Info("shutting down...")
	consumer.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
}
