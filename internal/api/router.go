package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"gauge-erp-backend/config"
	"gauge-erp-backend/internal/lifecycle"
	"gauge-erp-backend/internal/mw"
	"gauge-erp-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg *config.ServerConfig, s store.Store, svc *lifecycle.Service, webpushOptions *webpush.Options) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(s, svc, webpushOptions)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/gauges", caching, handler.ListGauges)
		api.GET("/gauges/:id", handler.GetGauge)

		api.POST("/gauges/:id/checkout", handler.Checkout)
		api.POST("/gauges/:id/checkin", handler.Checkin)
		api.POST("/gauges/:id/calibration/send", handler.SendForCalibration)
		api.POST("/gauges/:id/calibration/receive", handler.ReceiveFromCalibration)
		api.POST("/gauges/:id/calibration/certificate", handler.AttachCertificate)
		api.POST("/gauges/:id/qc-review", handler.QCReview)
		api.POST("/gauges/:id/unseal/request", handler.RequestUnseal)
		api.POST("/gauges/:id/unseal/approve", handler.ApproveUnseal)

		api.POST("/reconcile", handler.Reconcile)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
