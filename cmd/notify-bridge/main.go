package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ecnal/moxiworks-platform/internal/config"
	"github.com/ecnal/moxiworks-platform/internal/db"
	"github.com/ecnal/moxiworks-platform/internal/events"
	"go.uber.org/zap"
)

// Notify Bridge subscribes to ActionLog events on Redis and forwards each one
// to the partner's webhook.

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	if cfg.PartnerWebhookURL == "" {
		log.Fatal("PARTNER_WEBHOOK_URL is not set")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	subscriber := events.NewRedisSubscriber(rdb, log)
	httpClient := &http.Client{Timeout: 10 * time.Second}

	err = subscriber.Subscribe(ctx, events.StreamActionLog, func(event events.Event) {
		log.Info("forwarding event", zap.String("type", event.Type))
		forward(ctx, httpClient, cfg.PartnerWebhookURL, event, log)
	})
	if err != nil {
		log.Fatal("failed to subscribe", zap.Error(err))
	}

	log.Info("notify-bridge started", zap.String("stream", events.StreamActionLog))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down notify-bridge")
	cancel()
}

func forward(ctx context.Context, client *http.Client, webhookURL string, event events.Event, log *zap.Logger) {
	body, err := json.Marshal(event)
	if err != nil {
		log.Warn("failed to encode event", zap.Error(err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		log.Warn("failed to build webhook request", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Event-Type", event.Type)

	resp, err := client.Do(req)
	if err != nil {
		log.Warn("failed to forward event", zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Warn("webhook returned non-2xx", zap.Int("status", resp.StatusCode), zap.String("type", event.Type))
	}
}
