package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/baggs431/shopify-variant-tagger/internal/config"
	"github.com/baggs431/shopify-variant-tagger/internal/service"
)

type productWebhookBody struct {
	ID                int64  `json:"id"`
	AdminGraphqlAPIID string `json:"admin_graphql_api_id"`
	Variants          []struct {
		ID                int64  `json:"id"`
		AdminGraphqlAPIID string `json:"admin_graphql_api_id"`
	} `json:"variants"`
}

// VerifyWebhookHMAC recomputes the HMAC-SHA256 of the exact wire bytes
// and compares it to the claimed header in constant time. The body must
// never be re-serialized before this check.
func VerifyWebhookHMAC(secret string, body []byte, header string) bool {
	if secret == "" || header == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	// constant-time compare
	return hmac.Equal([]byte(expected), []byte(strings.TrimSpace(header)))
}

// HandleProductWebhook handles POST /webhooks/shopify/products.
// Configure Shopify webhook topic: products/update.
// Verified notifications have their variant ids enqueued for the
// reconciliation pipeline; processing continues after the response.
func HandleProductWebhook(cfg *config.Config, queue *service.PendingQueue, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		secret := strings.TrimSpace(cfg.Shopify.WebhookSecret)
		if secret == "" {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "shopify webhook not configured"})
			return
		}

		// Read raw body (Shopify HMAC is computed over raw bytes)
		bodyBytes, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
			return
		}

		hmacHeader := c.GetHeader("X-Shopify-Hmac-Sha256")
		if !VerifyWebhookHMAC(secret, bodyBytes, hmacHeader) {
			logger.Warn("Webhook: invalid signature",
				zap.String("topic", c.GetHeader("X-Shopify-Topic")),
			)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid webhook signature"})
			return
		}

		var body productWebhookBody
		if err := json.Unmarshal(bodyBytes, &body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON", "details": err.Error()})
			return
		}

		ids := make([]string, 0, len(body.Variants))
		for _, v := range body.Variants {
			gid := strings.TrimSpace(v.AdminGraphqlAPIID)
			if gid == "" && v.ID != 0 {
				gid = fmt.Sprintf("gid://shopify/ProductVariant/%d", v.ID)
			}
			if gid != "" {
				ids = append(ids, gid)
			}
		}
		queue.Enqueue(ids...)

		logger.Debug("Webhook: variants queued",
			zap.Int64("product_id", body.ID),
			zap.Int("queued", len(ids)),
		)
		c.JSON(http.StatusOK, gin.H{
			"ok":     true,
			"queued": len(ids),
			"topic":  c.GetHeader("X-Shopify-Topic"),
		})
	}
}
