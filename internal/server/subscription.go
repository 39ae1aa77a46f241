package server

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/elimisha-app/elimisha/internal/config"
	paymentdomain "github.com/elimisha-app/elimisha/internal/payment/domain"
)

// maxCallbackBody caps gateway callback reads. Real callbacks are well under
// a kilobyte.
const maxCallbackBody = 64 << 10

type planView struct {
	Kind     string   `json:"kind"`
	PriceKES int64    `json:"price_kes"`
	Months   int      `json:"months"`
	Features []string `json:"features"`
}

func (s *Server) Plans(c *gin.Context) {
	pricing := s.pricing.Get()

	plans := []planView{{
		Kind:     "free",
		PriceKES: 0,
		Months:   0,
		Features: []string{
			"5 AI feedback requests per day",
			"Progress tracking",
			"Learning analytics",
		},
	}}

	premiumFeatures := []string{
		"Unlimited AI feedback",
		"Progress tracking",
		"Learning analytics",
		"CSV data exports",
		"Priority support",
	}
	for _, plan := range pricing.Plans {
		plans = append(plans, planView{
			Kind:     plan.Kind,
			PriceKES: plan.PriceKES,
			Months:   plan.Months,
			Features: premiumFeatures,
		})
	}

	c.JSON(http.StatusOK, gin.H{"plans": plans})
}

func (s *Server) CurrentSubscription(c *gin.Context) {
	user := currentUser(c)

	sub, err := s.subscriptionSvc.CurrentForUser(c.Request.Context(), int64(user.ID))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	usage, err := s.responseSvc.UsageFor(c.Request.Context(), user)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"subscription": sub,
		"usage":        usage,
		"can_upgrade":  !sub.Active(time.Now().UTC()),
	})
}

func (s *Server) Usage(c *gin.Context) {
	user := currentUser(c)

	usage, err := s.responseSvc.UsageFor(c.Request.Context(), user)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, usage)
}

type initiatePaymentRequest struct {
	Phone string `json:"phone" binding:"required"`
	Plan  string `json:"plan" binding:"required"`
}

func (s *Server) InitiatePayment(c *gin.Context) {
	user := currentUser(c)

	var req initiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	record, err := s.paymentSvc.Initiate(c.Request.Context(), paymentdomain.InitiateRequest{
		UserID: int64(user.ID),
		Phone:  req.Phone,
		Plan:   req.Plan,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":             true,
		"checkout_request_id": record.CheckoutRequestID,
		"amount":              record.Amount,
		"phone":               record.PhoneNumber,
		"instructions": []string{
			"Check your phone for the M-Pesa prompt",
			"Enter your M-Pesa PIN to confirm the payment",
			"Your subscription activates as soon as the payment is confirmed",
		},
	})
}

type checkPaymentRequest struct {
	CheckoutRequestID string `json:"checkout_request_id" binding:"required"`
}

func (s *Server) CheckPayment(c *gin.Context) {
	user := currentUser(c)

	var req checkPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	record, err := s.paymentSvc.CheckStatus(c.Request.Context(), int64(user.ID), req.CheckoutRequestID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":                record.Status == paymentdomain.StatusCompleted,
		"status":                 record.Status,
		"completed":              record.Status.Terminal(),
		"message":                record.Status.Message(),
		"result_desc":            record.ResultDesc,
		"subscription_activated": record.SubscriptionActivated,
	})
}

// MpesaCallback ingests gateway result posts. The gateway retries anything it
// does not see acknowledged, so every outcome other than an unreadable or
// malformed payload is acknowledged with ResultCode 0.
func (s *Server) MpesaCallback(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxCallbackBody))
	if err != nil {
		s.log.Warn("mpesa callback body unreadable", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"ResultCode": 1, "ResultDesc": "Rejected"})
		return
	}

	if err := s.paymentSvc.HandleCallback(c.Request.Context(), payload); err != nil {
		s.log.Warn("mpesa callback rejected", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"ResultCode": 1, "ResultDesc": "Rejected"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ResultCode": 0, "ResultDesc": "Accepted"})
}

func (s *Server) CancelSubscription(c *gin.Context) {
	user := currentUser(c)

	sub, err := s.subscriptionSvc.Cancel(c.Request.Context(), int64(user.ID))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "subscription cancelled, premium access continues until the end date",
		"access_until": sub.EndDate,
	})
}

type devUpgradeRequest struct {
	Plan string `json:"plan"`
}

// DevUpgrade grants premium without a payment. It is only routed outside
// production.
func (s *Server) DevUpgrade(c *gin.Context) {
	user := currentUser(c)

	var req devUpgradeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	kind := req.Plan
	if kind == "" {
		kind = config.PlanMonthly
	}
	plan, ok := s.pricing.Get().Plan(kind)
	if !ok {
		AbortWithError(c, paymentdomain.ErrInvalidPlan)
		return
	}

	err := s.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		return s.subscriptionSvc.ActivateTx(c.Request.Context(), tx, int64(user.ID), plan.Months)
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "upgraded to premium",
		"plan":    plan.Kind,
		"months":  plan.Months,
	})
}
