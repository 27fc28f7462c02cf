package notification

import (
	"context"
	"fmt"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"gauge-erp-backend/internal/model"
)

// Sender defines the interface for sending a web push notification.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is the real Sender backed by the webpush library.
type WebPushSender struct{}

func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool fans availability notifications out to everyone watching a
// gauge. Jobs are gauge IDs that just became available again.
type WorkerPool struct {
	size    int
	jobs    chan int64
	db      *gorm.DB
	webpush *webpush.Options
	sender  Sender
	log     logrus.FieldLogger
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options, log logrus.FieldLogger) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan int64, size),
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
		log:     log,
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	wp.log.WithField("worker", id).Debug("notification worker started")
	for {
		select {
		case gaugeID := <-wp.jobs:
			wp.sendNotificationsForGauge(ctx, gaugeID)
		case <-ctx.Done():
			wp.log.WithField("worker", id).Debug("notification worker shutting down")
			return
		}
	}
}

// Dispatch sends a job to the worker pool.
func (wp *WorkerPool) Dispatch(gaugeID int64) {
	wp.jobs <- gaugeID
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan int64 {
	return wp.jobs
}

// sendNotificationsForGauge fetches the watchers of a gauge and notifies each.
func (wp *WorkerPool) sendNotificationsForGauge(ctx context.Context, gaugeID int64) {
	var subscriptions []model.PushSubscription
	err := wp.db.WithContext(ctx).
		Joins("JOIN subscription_gauge_mapping sgm ON sgm.push_subscription_endpoint = push_subscriptions.endpoint").
		Where("sgm.gauge_id = ?", gaugeID).
		Find(&subscriptions).Error
	if err != nil {
		wp.log.WithField("gauge_id", gaugeID).WithError(err).Error("failed to fetch watchers")
		return
	}

	if len(subscriptions) == 0 {
		return
	}

	var gauge model.Gauge
	label := fmt.Sprintf("#%d", gaugeID)
	if err := wp.db.WithContext(ctx).
		Select("ident").
		First(&gauge, gaugeID).Error; err != nil {
		wp.log.WithField("gauge_id", gaugeID).WithError(err).Warn("failed to fetch gauge for notification label")
	} else if gauge.Ident != "" {
		label = gauge.Ident
	}

	wp.log.WithFields(logrus.Fields{
		"gauge_id": gaugeID,
		"watchers": len(subscriptions),
	}).Info("sending availability notifications")

	message := fmt.Sprintf("Gauge %s is available again", label)
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, []byte(message))
	}
}

// sendNotification sends a single web push notification.
func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		wp.log.WithField("endpoint", sub.Endpoint).WithError(err).Error("failed to send notification")
		return
	}
	defer resp.Body.Close()

	// Expired subscriptions are pruned on the spot.
	if resp.StatusCode == http.StatusGone {
		wp.log.WithField("endpoint", sub.Endpoint).Info("subscription expired, deleting")
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			wp.log.WithField("endpoint", sub.Endpoint).WithError(err).Error("failed to delete expired subscription")
		}
	}
}
