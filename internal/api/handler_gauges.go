package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"gauge-erp-backend/internal/model"
	"gauge-erp-backend/internal/status"
)

// gaugeResponse flattens a gauge with its presentation and eligibility for
// the UI.
type gaugeResponse struct {
	model.Gauge
	StatusDisplay status.Display     `json:"statusDisplay"`
	SealDisplay   status.Display     `json:"sealDisplay"`
	Eligibility   status.Eligibility `json:"eligibility"`
}

func newGaugeResponse(g model.Gauge) gaugeResponse {
	return gaugeResponse{
		Gauge:         g,
		StatusDisplay: status.GetDisplay(g.Status),
		SealDisplay:   status.GetSealDisplay(g.SealStatus),
		Eligibility:   status.CanCheckout(g.Status, g.SealStatus),
	}
}

func gaugeID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid gauge ID"})
		return 0, false
	}
	return id, true
}

// ListGauges handles GET /api/gauges.
func (h *Handler) ListGauges(c *gin.Context) {
	gauges, err := h.store.ListActiveGauges(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	response := make([]gaugeResponse, 0, len(gauges))
	for _, g := range gauges {
		response = append(response, newGaugeResponse(g))
	}
	c.JSON(http.StatusOK, response)
}

// GetGauge handles GET /api/gauges/:id.
func (h *Handler) GetGauge(c *gin.Context) {
	id, ok := gaugeID(c)
	if !ok {
		return
	}
	g, err := h.store.GetGauge(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newGaugeResponse(g))
}

type checkoutRequest struct {
	UserID int64 `json:"user_id" binding:"required"`
}

// Checkout handles POST /api/gauges/:id/checkout.
func (h *Handler) Checkout(c *gin.Context) {
	id, ok := gaugeID(c)
	if !ok {
		return
	}
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.lifecycle.Checkout(c.Request.Context(), id, req.UserID); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status.CheckedOut})
}

// Checkin handles POST /api/gauges/:id/checkin.
func (h *Handler) Checkin(c *gin.Context) {
	id, ok := gaugeID(c)
	if !ok {
		return
	}
	if err := h.lifecycle.Checkin(c.Request.Context(), id); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status.Returned})
}

// SendForCalibration handles POST /api/gauges/:id/calibration/send.
func (h *Handler) SendForCalibration(c *gin.Context) {
	id, ok := gaugeID(c)
	if !ok {
		return
	}
	if err := h.lifecycle.SendForCalibration(c.Request.Context(), id); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status.OutForCalibration})
}

// ReceiveFromCalibration handles POST /api/gauges/:id/calibration/receive.
func (h *Handler) ReceiveFromCalibration(c *gin.Context) {
	id, ok := gaugeID(c)
	if !ok {
		return
	}
	if err := h.lifecycle.ReceiveFromCalibration(c.Request.Context(), id); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status.PendingCertificate})
}

type certificateRequest struct {
	DueDate time.Time `json:"due_date" binding:"required"`
}

// AttachCertificate handles POST /api/gauges/:id/calibration/certificate.
func (h *Handler) AttachCertificate(c *gin.Context) {
	id, ok := gaugeID(c)
	if !ok {
		return
	}
	var req certificateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.lifecycle.AttachCertificate(c.Request.Context(), id, req.DueDate); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status.PendingRelease})
}

type qcReviewRequest struct {
	Approved *bool `json:"approved" binding:"required"`
}

// QCReview handles POST /api/gauges/:id/qc-review.
func (h *Handler) QCReview(c *gin.Context) {
	id, ok := gaugeID(c)
	if !ok {
		return
	}
	var req qcReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.lifecycle.QCReview(c.Request.Context(), id, *req.Approved); err != nil {
		abortWithError(c, err)
		return
	}
	g, err := h.store.GetGauge(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": g.Status})
}

// RequestUnseal handles POST /api/gauges/:id/unseal/request.
func (h *Handler) RequestUnseal(c *gin.Context) {
	id, ok := gaugeID(c)
	if !ok {
		return
	}
	if err := h.lifecycle.RequestUnseal(c.Request.Context(), id); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status.PendingUnseal})
}

// ApproveUnseal handles POST /api/gauges/:id/unseal/approve.
func (h *Handler) ApproveUnseal(c *gin.Context) {
	id, ok := gaugeID(c)
	if !ok {
		return
	}
	if err := h.lifecycle.ApproveUnseal(c.Request.Context(), id); err != nil {
		abortWithError(c, err)
		return
	}
	g, err := h.store.GetGauge(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": g.Status})
}

// Reconcile handles POST /api/reconcile, the manual trigger for the batch
// self-heal.
func (h *Handler) Reconcile(c *gin.Context) {
	result, err := h.lifecycle.Reconcile(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
