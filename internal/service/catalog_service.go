package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/baggs431/shopify-variant-tagger/internal/config"
	"github.com/baggs431/shopify-variant-tagger/internal/domain"
	"github.com/baggs431/shopify-variant-tagger/internal/shopify"
	apperrors "github.com/baggs431/shopify-variant-tagger/pkg/errors"
)

// CatalogService is the Shopify-backed implementation of CatalogGateway
// and SubscriptionAPI.
type CatalogService struct {
	client *shopify.Client
	meta   config.MetafieldConfig
	logger *zap.Logger
}

// NewCatalogService creates a new Shopify catalog service
func NewCatalogService(cfg config.ShopifyConfig, meta config.MetafieldConfig, logger *zap.Logger) *CatalogService {
	return &CatalogService{
		client: shopify.NewClient(cfg, logger),
		meta:   meta,
		logger: logger,
	}
}

// VariantSnapshot fetches the classification inputs for one variant in a
// single query. Returns *apperrors.ErrNotFound when the variant is gone,
// *apperrors.ErrMalformed when the response shape is wrong, and passes
// through *apperrors.ErrTransient from the client.
func (s *CatalogService) VariantSnapshot(ctx context.Context, id string) (*domain.VariantSnapshot, error) {
	variables := map[string]interface{}{
		"id": id,
	}

	resp, err := s.client.Execute(ctx, shopify.VariantSnapshotQuery, variables)
	if err != nil {
		return nil, fmt.Errorf("variant snapshot query: %w", err)
	}

	var result struct {
		ProductVariant *struct {
			ID             string    `json:"id"`
			CreatedAt      time.Time `json:"createdAt"`
			Price          string    `json:"price"`
			CompareAtPrice *string   `json:"compareAtPrice"`
			Product        struct {
				ID        string    `json:"id"`
				CreatedAt time.Time `json:"createdAt"`
			} `json:"product"`
			Metafields struct {
				Edges []struct {
					Node struct {
						Namespace string `json:"namespace"`
						Key       string `json:"key"`
						Value     string `json:"value"`
					} `json:"node"`
				} `json:"edges"`
			} `json:"metafields"`
		} `json:"productVariant"`
	}

	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return nil, &apperrors.ErrMalformed{Resource: "variant", Reason: err.Error()}
	}
	if result.ProductVariant == nil {
		return nil, &apperrors.ErrNotFound{Resource: "variant", ID: id}
	}

	v := result.ProductVariant
	price, err := strconv.ParseFloat(strings.TrimSpace(v.Price), 64)
	if err != nil {
		return nil, &apperrors.ErrMalformed{Resource: "variant", Reason: fmt.Sprintf("price %q: %v", v.Price, err)}
	}
	compareAt := 0.0
	if v.CompareAtPrice != nil && strings.TrimSpace(*v.CompareAtPrice) != "" {
		compareAt, err = strconv.ParseFloat(strings.TrimSpace(*v.CompareAtPrice), 64)
		if err != nil {
			return nil, &apperrors.ErrMalformed{Resource: "variant", Reason: fmt.Sprintf("compareAtPrice %q: %v", *v.CompareAtPrice, err)}
		}
	}

	// Flatten the metafield edge list into a namespace.key lookup map
	fields := make(map[string]string, len(v.Metafields.Edges))
	for _, edge := range v.Metafields.Edges {
		fields[edge.Node.Namespace+"."+edge.Node.Key] = edge.Node.Value
	}

	recentBestSeller := false
	if raw, ok := fields[s.meta.BestSellerNamespace+"."+s.meta.BestSellerKey]; ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(raw)); err == nil {
			recentBestSeller = b
		}
	}

	return &domain.VariantSnapshot{
		ID:               v.ID,
		CreatedAt:        v.CreatedAt,
		ParentCreatedAt:  v.Product.CreatedAt,
		Price:            price,
		CompareAtPrice:   compareAt,
		RecentBestSeller: recentBestSeller,
		CurrentLabel:     fields[s.meta.LabelNamespace+"."+s.meta.LabelKey],
	}, nil
}

// SetVariantLabel writes the label metafield on a variant. Field-level
// userErrors come back as *apperrors.ErrValidation and are never worth
// retrying.
func (s *CatalogService) SetVariantLabel(ctx context.Context, id string, label domain.Label) error {
	metafields := []shopify.MetafieldsSetInput{
		{
			OwnerID:   id,
			Namespace: s.meta.LabelNamespace,
			Key:       s.meta.LabelKey,
			Type:      "single_line_text_field",
			Value:     string(label),
		},
	}
	variables := map[string]interface{}{
		"metafields": metafields,
	}

	resp, err := s.client.Execute(ctx, shopify.MetafieldsSetMutation, variables)
	if err != nil {
		return fmt.Errorf("metafields set: %w", err)
	}

	var result struct {
		MetafieldsSet struct {
			UserErrors []struct {
				Field   []string `json:"field"`
				Message string   `json:"message"`
			} `json:"userErrors"`
		} `json:"metafieldsSet"`
	}
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return &apperrors.ErrMalformed{Resource: "metafieldsSet", Reason: err.Error()}
	}
	if len(result.MetafieldsSet.UserErrors) > 0 {
		fields := make(map[string]string, len(result.MetafieldsSet.UserErrors))
		for _, ue := range result.MetafieldsSet.UserErrors {
			fields[strings.Join(ue.Field, ".")] = ue.Message
		}
		return &apperrors.ErrValidation{Fields: fields}
	}
	return nil
}

// VariantIDsPage fetches one page of variant ids for bulk enumeration
func (s *CatalogService) VariantIDsPage(ctx context.Context, after string, first int) ([]string, string, bool, error) {
	variables := map[string]interface{}{
		"first": first,
	}
	if after != "" {
		variables["after"] = after
	}

	resp, err := s.client.Execute(ctx, shopify.VariantIDsPageQuery, variables)
	if err != nil {
		return nil, "", false, fmt.Errorf("variant ids page: %w", err)
	}

	var result struct {
		ProductVariants struct {
			PageInfo struct {
				HasNextPage bool   `json:"hasNextPage"`
				EndCursor   string `json:"endCursor"`
			} `json:"pageInfo"`
			Edges []struct {
				Node struct {
					ID string `json:"id"`
				} `json:"node"`
			} `json:"edges"`
		} `json:"productVariants"`
	}
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return nil, "", false, &apperrors.ErrMalformed{Resource: "productVariants", Reason: err.Error()}
	}

	ids := make([]string, 0, len(result.ProductVariants.Edges))
	for _, edge := range result.ProductVariants.Edges {
		if edge.Node.ID != "" {
			ids = append(ids, edge.Node.ID)
		}
	}
	return ids, result.ProductVariants.PageInfo.EndCursor, result.ProductVariants.PageInfo.HasNextPage, nil
}

// ListSubscriptions lists webhook subscriptions for a topic
func (s *CatalogService) ListSubscriptions(ctx context.Context, topic string) ([]WebhookSubscription, error) {
	variables := map[string]interface{}{
		"topics": []string{topic},
	}

	resp, err := s.client.Execute(ctx, shopify.WebhookSubscriptionsQuery, variables)
	if err != nil {
		return nil, fmt.Errorf("list webhook subscriptions: %w", err)
	}

	var result struct {
		WebhookSubscriptions struct {
			Edges []struct {
				Node struct {
					ID       string `json:"id"`
					Topic    string `json:"topic"`
					Endpoint struct {
						Typename    string `json:"__typename"`
						CallbackURL string `json:"callbackUrl"`
					} `json:"endpoint"`
				} `json:"node"`
			} `json:"edges"`
		} `json:"webhookSubscriptions"`
	}
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return nil, &apperrors.ErrMalformed{Resource: "webhookSubscriptions", Reason: err.Error()}
	}

	subs := make([]WebhookSubscription, 0, len(result.WebhookSubscriptions.Edges))
	for _, edge := range result.WebhookSubscriptions.Edges {
		subs = append(subs, WebhookSubscription{
			ID:          edge.Node.ID,
			CallbackURL: edge.Node.Endpoint.CallbackURL,
		})
	}
	return subs, nil
}

// CreateSubscription registers a webhook subscription and returns its id
func (s *CatalogService) CreateSubscription(ctx context.Context, topic, callbackURL string) (string, error) {
	variables := map[string]interface{}{
		"topic":       topic,
		"callbackUrl": callbackURL,
	}

	resp, err := s.client.Execute(ctx, shopify.WebhookSubscriptionCreateMutation, variables)
	if err != nil {
		return "", fmt.Errorf("create webhook subscription: %w", err)
	}

	var result struct {
		WebhookSubscriptionCreate struct {
			WebhookSubscription struct {
				ID string `json:"id"`
			} `json:"webhookSubscription"`
			UserErrors []struct {
				Field   []string `json:"field"`
				Message string   `json:"message"`
			} `json:"userErrors"`
		} `json:"webhookSubscriptionCreate"`
	}
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return "", &apperrors.ErrMalformed{Resource: "webhookSubscriptionCreate", Reason: err.Error()}
	}
	if len(result.WebhookSubscriptionCreate.UserErrors) > 0 {
		return "", fmt.Errorf("shopify user errors: %v", result.WebhookSubscriptionCreate.UserErrors)
	}
	if result.WebhookSubscriptionCreate.WebhookSubscription.ID == "" {
		return "", &apperrors.ErrMalformed{Resource: "webhookSubscriptionCreate", Reason: "no subscription id returned"}
	}
	return result.WebhookSubscriptionCreate.WebhookSubscription.ID, nil
}

// DeleteSubscription removes a webhook subscription by id
func (s *CatalogService) DeleteSubscription(ctx context.Context, id string) error {
	variables := map[string]interface{}{
		"id": id,
	}

	resp, err := s.client.Execute(ctx, shopify.WebhookSubscriptionDeleteMutation, variables)
	if err != nil {
		return fmt.Errorf("delete webhook subscription: %w", err)
	}

	var result struct {
		WebhookSubscriptionDelete struct {
			DeletedWebhookSubscriptionID string `json:"deletedWebhookSubscriptionId"`
			UserErrors                   []struct {
				Field   []string `json:"field"`
				Message string   `json:"message"`
			} `json:"userErrors"`
		} `json:"webhookSubscriptionDelete"`
	}
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return &apperrors.ErrMalformed{Resource: "webhookSubscriptionDelete", Reason: err.Error()}
	}
	if len(result.WebhookSubscriptionDelete.UserErrors) > 0 {
		return fmt.Errorf("shopify user errors: %v", result.WebhookSubscriptionDelete.UserErrors)
	}
	return nil
}
