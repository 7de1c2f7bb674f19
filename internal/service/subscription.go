package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// ProductUpdateTopic is the webhook topic this service subscribes to
const ProductUpdateTopic = "PRODUCTS_UPDATE"

// WebhookSubscription is one platform-side subscription record
type WebhookSubscription struct {
	ID          string
	CallbackURL string
}

// SubscriptionAPI is what the reconciler needs from the platform's
// subscription management surface.
type SubscriptionAPI interface {
	ListSubscriptions(ctx context.Context, topic string) ([]WebhookSubscription, error)
	CreateSubscription(ctx context.Context, topic, callbackURL string) (string, error)
	DeleteSubscription(ctx context.Context, id string) error
}

// EnsureSubscription converges platform state to exactly one
// product-update subscription at callbackURL: keeps the first matching
// one, deletes duplicates, creates one if none exist. Safe to run on
// every boot; only touches subscription metadata, never variant data.
func EnsureSubscription(ctx context.Context, api SubscriptionAPI, callbackURL string, logger *zap.Logger) error {
	if callbackURL == "" {
		logger.Warn("Subscription: WEBHOOK_CALLBACK_URL not set, skipping webhook registration")
		return nil
	}

	subs, err := api.ListSubscriptions(ctx, ProductUpdateTopic)
	if err != nil {
		return fmt.Errorf("list webhook subscriptions: %w", err)
	}

	var matching []WebhookSubscription
	for _, sub := range subs {
		if sub.CallbackURL == callbackURL {
			matching = append(matching, sub)
		}
	}

	if len(matching) == 0 {
		id, err := api.CreateSubscription(ctx, ProductUpdateTopic, callbackURL)
		if err != nil {
			return fmt.Errorf("create webhook subscription: %w", err)
		}
		logger.Info("Subscription: created",
			zap.String("subscription_id", id),
			zap.String("callback_url", callbackURL),
		)
		return nil
	}

	for _, dup := range matching[1:] {
		if err := api.DeleteSubscription(ctx, dup.ID); err != nil {
			logger.Warn("Subscription: failed to delete duplicate", zap.String("subscription_id", dup.ID), zap.Error(err))
			continue
		}
		logger.Info("Subscription: deleted duplicate", zap.String("subscription_id", dup.ID))
	}
	logger.Info("Subscription: already registered", zap.String("subscription_id", matching[0].ID))
	return nil
}
