package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/baggs431/shopify-variant-tagger/internal/domain"
	"github.com/baggs431/shopify-variant-tagger/internal/service"
	apperrors "github.com/baggs431/shopify-variant-tagger/pkg/errors"
)

type reconcileRequest struct {
	VariantIDs []string `json:"variant_ids"`
}

// HandleReconcile handles POST /v1/reconcile.
// With variant_ids: runs the pipeline synchronously and returns the
// summary. Without: starts a full-catalog run in the background and
// returns 202 with a run id; completion is logged under that id.
func HandleReconcile(reconciler *service.Reconciler, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req reconcileRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON", "details": err.Error()})
				return
			}
		}

		if len(req.VariantIDs) == 0 {
			runID := uuid.NewString()
			go reconciler.FullSync(context.Background(), runID)
			c.JSON(http.StatusAccepted, gin.H{
				"ok":     true,
				"mode":   "full",
				"run_id": runID,
			})
			return
		}

		ids := make([]string, 0, len(req.VariantIDs))
		for _, id := range req.VariantIDs {
			ids = append(ids, variantGID(id))
		}
		summary := reconciler.ReconcileBatch(c.Request.Context(), ids)
		c.JSON(http.StatusOK, gin.H{
			"ok":      true,
			"mode":    "ids",
			"summary": summary,
		})
	}
}

// HandleGetVariantLabel handles GET /v1/variants/:id/label.
// Dry run: reads and classifies without writing, so operators can see
// what the pipeline would do to a variant.
func HandleGetVariantLabel(reconciler *service.Reconciler, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := variantGID(strings.TrimSpace(c.Param("id")))
		snap, target, err := reconciler.Preview(c.Request.Context(), id)
		if err != nil {
			var notFound *apperrors.ErrNotFound
			if errors.As(err, &notFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "variant not found", "variant_id": id})
				return
			}
			logger.Warn("Dry run: read failed", zap.String("variant_id", id), zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "failed to read variant", "details": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"variant_id":     snap.ID,
			"current_label":  snap.CurrentLabel,
			"computed_label": string(target),
			"would_write":    domain.ShouldWrite(snap.CurrentLabel, target),
		})
	}
}

// variantGID accepts either a bare numeric id or a full GID
func variantGID(id string) string {
	if strings.HasPrefix(id, "gid://") {
		return id
	}
	return fmt.Sprintf("gid://shopify/ProductVariant/%s", id)
}
