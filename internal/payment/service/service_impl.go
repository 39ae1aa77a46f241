package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/elimisha-app/elimisha/internal/config"
	"github.com/elimisha-app/elimisha/internal/payment/domain"
	"github.com/elimisha-app/elimisha/pkg/daraja"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const accountReference = "ELIMISHA"

type Service struct {
	log       *zap.Logger
	db        *gorm.DB
	repo      domain.Repository
	gateway   daraja.Client
	activator domain.SubscriptionActivator
	pricing   *config.PricingHolder
	genID     *snowflake.Node
	now       func() time.Time
}

func New(
	log *zap.Logger,
	gdb *gorm.DB,
	repo domain.Repository,
	gateway daraja.Client,
	activator domain.SubscriptionActivator,
	pricing *config.PricingHolder,
	genID *snowflake.Node,
) domain.Service {
	return &Service{
		log:       log.Named("payment.service"),
		db:        gdb,
		repo:      repo,
		gateway:   gateway,
		activator: activator,
		pricing:   pricing,
		genID:     genID,
		now:       time.Now,
	}
}

func (s *Service) Initiate(ctx context.Context, req domain.InitiateRequest) (*domain.PaymentRecord, error) {
	phone := daraja.NormalizePhone(req.Phone)
	if phone == "" {
		return nil, domain.ErrInvalidPhone
	}

	plan, ok := s.pricing.Get().Plan(req.Plan)
	if !ok {
		return nil, domain.ErrInvalidPlan
	}

	push, err := s.gateway.STKPush(ctx, daraja.STKPushRequest{
		Phone:            phone,
		Amount:           plan.PriceKES,
		AccountReference: accountReference,
		Description:      fmt.Sprintf("Elimisha %s subscription", plan.Kind),
	})
	if err != nil {
		return nil, s.gatewayError("stk push", err)
	}

	rec := &domain.PaymentRecord{
		ID:                s.genID.Generate(),
		UserID:            req.UserID,
		CheckoutRequestID: push.CheckoutRequestID,
		MerchantRequestID: push.MerchantRequestID,
		Amount:            plan.PriceKES,
		Plan:              plan.Kind,
		PhoneNumber:       phone,
		Status:            domain.StatusPending,
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("store payment: %w", err)
	}

	paymentsInitiated.Inc()
	s.log.Info("payment initiated",
		zap.Int64("user_id", req.UserID),
		zap.String("checkout_request_id", rec.CheckoutRequestID),
		zap.String("plan", plan.Kind),
		zap.Int64("amount", plan.PriceKES),
	)
	return rec, nil
}

func (s *Service) HandleCallback(ctx context.Context, payload []byte) error {
	cb, err := daraja.ParseCallback(payload)
	if err != nil {
		callbacksReceived.WithLabelValues(callbackOutcomeInvalid).Inc()
		return err
	}

	rec, err := s.ApplyStatus(ctx, cb.CheckoutRequestID, domain.StatusReport{
		ResultCode: cb.ResultCode,
		ResultDesc: cb.ResultDesc,
		Amount:     cb.Amount,
		Receipt:    cb.Receipt,
		Raw:        payload,
	})
	switch {
	case errors.Is(err, domain.ErrPaymentNotFound):
		// A callback for an attempt this system never opened. Drop it; the
		// gateway must still get its acknowledgement.
		callbacksReceived.WithLabelValues(callbackOutcomeUnknown).Inc()
		s.log.Warn("callback for unknown payment",
			zap.String("checkout_request_id", cb.CheckoutRequestID),
		)
		return nil
	case err != nil:
		callbacksReceived.WithLabelValues(callbackOutcomeError).Inc()
		return err
	}

	if rec.Status.Terminal() {
		callbacksReceived.WithLabelValues(callbackOutcomeApplied).Inc()
	} else {
		callbacksReceived.WithLabelValues(callbackOutcomePending).Inc()
	}
	return nil
}

func (s *Service) CheckStatus(ctx context.Context, userID int64, checkoutRequestID string) (*domain.PaymentRecord, error) {
	rec, err := s.repo.FindByCheckoutID(ctx, checkoutRequestID)
	if err != nil {
		return nil, err
	}
	if rec.UserID != userID {
		return nil, domain.ErrPaymentNotFound
	}
	if rec.Status.Terminal() {
		return rec, nil
	}

	query, err := s.gateway.STKQuery(ctx, checkoutRequestID)
	if err != nil {
		// A transport fault is not a payment outcome. The stored record stays
		// PENDING and the caller gets a retryable error.
		s.log.Warn("status query failed",
			zap.String("checkout_request_id", checkoutRequestID),
			zap.Error(err),
		)
		return nil, s.gatewayError("stk query", err)
	}

	return s.ApplyStatus(ctx, checkoutRequestID, domain.StatusReport{
		ResultCode: query.ResultCode,
		ResultDesc: query.ResultDesc,
	})
}

// ApplyStatus is the single convergence point for all confirmation paths. It
// locks the payment row, ignores reports that arrive after the record is
// terminal, and on success activates the subscription in the same
// transaction so the record can never claim an activation that rolled back.
func (s *Service) ApplyStatus(ctx context.Context, checkoutRequestID string, report domain.StatusReport) (*domain.PaymentRecord, error) {
	var (
		out     *domain.PaymentRecord
		settled domain.Status
	)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		rec, err := s.repo.FindByCheckoutIDForUpdate(ctx, tx, checkoutRequestID)
		if err != nil {
			return err
		}

		// Terminal records are immutable. Whoever lost the race observes the
		// winner's outcome.
		if rec.Status.Terminal() {
			out = rec
			return nil
		}

		next := domain.StatusFromResultCode(report.ResultCode)
		if next == domain.StatusPending {
			out = rec
			return nil
		}

		now := s.now().UTC()
		rec.Status = next
		rec.ResultCode = report.ResultCode
		if report.ResultDesc != "" {
			rec.ResultDesc = report.ResultDesc
		}
		if report.Receipt != "" {
			rec.ReceiptNumber = report.Receipt
		}
		if len(report.Raw) > 0 {
			rec.CallbackPayload = datatypes.JSON(report.Raw)
		}
		rec.UpdatedAt = now

		if next == domain.StatusCompleted {
			rec.CompletedAt = &now

			// The amount actually paid decides the grant. A payer who opened
			// a monthly prompt but paid the yearly price gets the year.
			amount := rec.Amount
			if report.Amount != nil && *report.Amount > 0 {
				amount = *report.Amount
				rec.Amount = amount
			}
			plan := s.pricing.Get().PlanForAmount(amount)
			rec.Plan = plan.Kind

			if err := s.activator.ActivateTx(ctx, tx, rec.UserID, plan.Months); err != nil {
				return fmt.Errorf("activate subscription for %s: %w", checkoutRequestID, err)
			}
			rec.SubscriptionActivated = true
		}

		if err := s.repo.SaveTx(ctx, tx, rec); err != nil {
			return fmt.Errorf("save payment %s: %w", checkoutRequestID, err)
		}

		out = rec
		settled = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	if settled != "" {
		paymentTransitions.WithLabelValues(string(settled)).Inc()
		s.log.Info("payment settled",
			zap.String("checkout_request_id", checkoutRequestID),
			zap.String("status", string(settled)),
			zap.Bool("subscription_activated", out.SubscriptionActivated),
		)
	}
	return out, nil
}

func (s *Service) gatewayError(op string, err error) error {
	var reqErr *daraja.RequestError
	if errors.As(err, &reqErr) {
		return err
	}
	return fmt.Errorf("%s: %w: %v", op, domain.ErrGatewayUnavailable, err)
}
