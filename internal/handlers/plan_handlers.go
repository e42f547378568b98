package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"arogya_api_echo/internal/models"
	"arogya_api_echo/internal/services"
)

const planCacheKey = "plans:active"
const planCacheTTL = 5 * time.Minute

type PlanHandler struct {
	db    *gorm.DB
	cache *services.RedisCache
}

func NewPlanHandler(db *gorm.DB, cache *services.RedisCache) *PlanHandler {
	return &PlanHandler{db: db, cache: cache}
}

// ListPlans handles GET /api/plans. Plans change rarely, so the list is
// served from cache.
func (h *PlanHandler) ListPlans(c echo.Context) error {
	ctx := c.Request().Context()

	plans, err := services.GetOrSet(h.cache, ctx, planCacheKey, planCacheTTL, func() ([]models.SubscriptionPlan, error) {
		var plans []models.SubscriptionPlan
		err := h.db.WithContext(ctx).
			Where("is_active = ?", true).
			Order("price_paise asc").
			Find(&plans).Error
		return plans, err
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch plans")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"plans": plans,
	})
}
