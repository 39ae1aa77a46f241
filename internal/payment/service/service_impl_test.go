package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/elimisha-app/elimisha/internal/config"
	"github.com/elimisha-app/elimisha/internal/payment/domain"
	"github.com/elimisha-app/elimisha/internal/payment/repository"
	"github.com/elimisha-app/elimisha/pkg/daraja"
	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type gatewayStub struct {
	mu          sync.Mutex
	pushResult  *daraja.STKPushResult
	pushErr     error
	queryResult *daraja.STKQueryResult
	queryErr    error
	queries     int
}

func (g *gatewayStub) STKPush(ctx context.Context, req daraja.STKPushRequest) (*daraja.STKPushResult, error) {
	if g.pushErr != nil {
		return nil, g.pushErr
	}
	return g.pushResult, nil
}

func (g *gatewayStub) STKQuery(ctx context.Context, checkoutRequestID string) (*daraja.STKQueryResult, error) {
	g.mu.Lock()
	g.queries++
	g.mu.Unlock()
	if g.queryErr != nil {
		return nil, g.queryErr
	}
	if g.queryResult == nil {
		// No verdict configured means the gateway has not settled the
		// attempt yet.
		return &daraja.STKQueryResult{}, nil
	}
	return g.queryResult, nil
}

type activatorStub struct {
	mu     sync.Mutex
	calls  int
	months []int
	err    error
}

func (a *activatorStub) ActivateTx(ctx context.Context, tx *gorm.DB, userID int64, months int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.calls++
	a.months = append(a.months, months)
	return nil
}

func (a *activatorStub) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

func setupPaymentService(t *testing.T, gateway daraja.Client, activator domain.SubscriptionActivator) (domain.Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_loc=auto", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	_ = db.Exec("PRAGMA busy_timeout = 5000").Error
	preparePaymentSchema(t, db)

	node := mustNode(t)
	svc := New(
		zap.NewNop(),
		db,
		repository.Provide(db),
		gateway,
		activator,
		config.NewStaticPricingHolder(config.DefaultPricing()),
		node,
	)
	return svc, db
}

func preparePaymentSchema(t *testing.T, db *gorm.DB) {
	t.Helper()
	if err := db.Exec(`CREATE TABLE payments (
		id BIGINT PRIMARY KEY,
		user_id BIGINT NOT NULL,
		checkout_request_id TEXT NOT NULL,
		merchant_request_id TEXT,
		amount BIGINT NOT NULL,
		plan TEXT NOT NULL,
		phone_number TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'PENDING',
		result_code TEXT,
		result_desc TEXT,
		receipt_number TEXT,
		subscription_activated BOOLEAN NOT NULL DEFAULT FALSE,
		callback_payload JSON,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		completed_at DATETIME
	)`).Error; err != nil {
		t.Fatalf("create payments: %v", err)
	}
	if err := db.Exec(`CREATE UNIQUE INDEX ux_payments_checkout_request_id
		ON payments (checkout_request_id)`).Error; err != nil {
		t.Fatalf("create payments index: %v", err)
	}
}

func mustNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	return node
}

func initiatePending(t *testing.T, svc domain.Service, userID int64, plan string) *domain.PaymentRecord {
	t.Helper()
	rec, err := svc.Initiate(context.Background(), domain.InitiateRequest{
		UserID: userID,
		Phone:  "0712345678",
		Plan:   plan,
	})
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	return rec
}

func strptr(s string) *string { return &s }

func int64ptr(v int64) *int64 { return &v }

func successCallback(checkoutID string, amount int64) []byte {
	return []byte(fmt.Sprintf(`{
		"Body": {
			"stkCallback": {
				"MerchantRequestID": "merch-1",
				"CheckoutRequestID": %q,
				"ResultCode": 0,
				"ResultDesc": "The service request is processed successfully.",
				"CallbackMetadata": {
					"Item": [
						{"Name": "Amount", "Value": %d},
						{"Name": "MpesaReceiptNumber", "Value": "NLJ7RT61SV"},
						{"Name": "PhoneNumber", "Value": 254712345678}
					]
				}
			}
		}
	}`, checkoutID, amount))
}

func TestInitiateCreatesPendingRecord(t *testing.T) {
	gateway := &gatewayStub{pushResult: &daraja.STKPushResult{
		CheckoutRequestID: "ws_CO_1",
		MerchantRequestID: "merch-1",
	}}
	svc, db := setupPaymentService(t, gateway, &activatorStub{})

	rec := initiatePending(t, svc, 42, config.PlanMonthly)
	if rec.Status != domain.StatusPending {
		t.Errorf("status = %s, want PENDING", rec.Status)
	}
	if rec.Amount != 300 {
		t.Errorf("amount = %d, want 300", rec.Amount)
	}
	if rec.PhoneNumber != "254712345678" {
		t.Errorf("phone = %q", rec.PhoneNumber)
	}

	var count int
	if err := db.Raw(`SELECT COUNT(1) FROM payments`).Scan(&count).Error; err != nil {
		t.Fatalf("count payments: %v", err)
	}
	if count != 1 {
		t.Errorf("payments rows = %d, want 1", count)
	}
}

func TestInitiateRejectsBadInput(t *testing.T) {
	gateway := &gatewayStub{pushResult: &daraja.STKPushResult{CheckoutRequestID: "ws_CO_1"}}
	svc, _ := setupPaymentService(t, gateway, &activatorStub{})

	_, err := svc.Initiate(context.Background(), domain.InitiateRequest{
		UserID: 42, Phone: "12345", Plan: config.PlanMonthly,
	})
	if !errors.Is(err, domain.ErrInvalidPhone) {
		t.Errorf("err = %v, want ErrInvalidPhone", err)
	}

	_, err = svc.Initiate(context.Background(), domain.InitiateRequest{
		UserID: 42, Phone: "0712345678", Plan: "weekly",
	})
	if !errors.Is(err, domain.ErrInvalidPlan) {
		t.Errorf("err = %v, want ErrInvalidPlan", err)
	}
}

func TestInitiateGatewayTimeoutIsRetryable(t *testing.T) {
	gateway := &gatewayStub{pushErr: daraja.ErrTimeout}
	svc, db := setupPaymentService(t, gateway, &activatorStub{})

	_, err := svc.Initiate(context.Background(), domain.InitiateRequest{
		UserID: 42, Phone: "0712345678", Plan: config.PlanMonthly,
	})
	if !errors.Is(err, domain.ErrGatewayUnavailable) {
		t.Fatalf("err = %v, want ErrGatewayUnavailable", err)
	}

	var count int
	if err := db.Raw(`SELECT COUNT(1) FROM payments`).Scan(&count).Error; err != nil {
		t.Fatalf("count payments: %v", err)
	}
	if count != 0 {
		t.Errorf("payments rows = %d, want 0 after failed push", count)
	}
}

func TestCallbackCompletesAndActivates(t *testing.T) {
	gateway := &gatewayStub{pushResult: &daraja.STKPushResult{CheckoutRequestID: "ws_CO_1"}}
	activator := &activatorStub{}
	svc, _ := setupPaymentService(t, gateway, activator)

	rec := initiatePending(t, svc, 42, config.PlanMonthly)
	if err := svc.HandleCallback(context.Background(), successCallback(rec.CheckoutRequestID, 300)); err != nil {
		t.Fatalf("handle callback: %v", err)
	}

	got, err := svc.CheckStatus(context.Background(), 42, rec.CheckoutRequestID)
	if err != nil {
		t.Fatalf("check status: %v", err)
	}
	if got.Status != domain.StatusCompleted {
		t.Errorf("status = %s, want COMPLETED", got.Status)
	}
	if !got.SubscriptionActivated {
		t.Error("subscription_activated = false, want true")
	}
	if got.ReceiptNumber != "NLJ7RT61SV" {
		t.Errorf("receipt = %q", got.ReceiptNumber)
	}
	if got.CompletedAt == nil {
		t.Error("completed_at not set")
	}
	if activator.Calls() != 1 {
		t.Errorf("activations = %d, want 1", activator.Calls())
	}
	if len(activator.months) != 1 || activator.months[0] != 1 {
		t.Errorf("months = %v, want [1]", activator.months)
	}
}

func TestCallbackRedeliveryIsIdempotent(t *testing.T) {
	gateway := &gatewayStub{pushResult: &daraja.STKPushResult{CheckoutRequestID: "ws_CO_1"}}
	activator := &activatorStub{}
	svc, _ := setupPaymentService(t, gateway, activator)

	rec := initiatePending(t, svc, 42, config.PlanMonthly)
	payload := successCallback(rec.CheckoutRequestID, 300)
	for i := 0; i < 5; i++ {
		if err := svc.HandleCallback(context.Background(), payload); err != nil {
			t.Fatalf("delivery #%d: %v", i, err)
		}
	}

	if activator.Calls() != 1 {
		t.Errorf("activations = %d, want exactly 1", activator.Calls())
	}
	got, err := svc.CheckStatus(context.Background(), 42, rec.CheckoutRequestID)
	if err != nil {
		t.Fatalf("check status: %v", err)
	}
	if got.Status != domain.StatusCompleted {
		t.Errorf("status = %s, want COMPLETED", got.Status)
	}
}

func TestConcurrentReportsSettleOnce(t *testing.T) {
	gateway := &gatewayStub{pushResult: &daraja.STKPushResult{CheckoutRequestID: "ws_CO_1"}}
	activator := &activatorStub{}
	svc, _ := setupPaymentService(t, gateway, activator)

	rec := initiatePending(t, svc, 42, config.PlanMonthly)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ApplyStatus(context.Background(), rec.CheckoutRequestID, domain.StatusReport{
				ResultCode: strptr("0"),
				ResultDesc: "The service request is processed successfully.",
				Amount:     int64ptr(300),
				Receipt:    "NLJ7RT61SV",
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("apply status: %v", err)
		}
	}

	if activator.Calls() != 1 {
		t.Errorf("activations = %d, want exactly 1", activator.Calls())
	}
}

func TestActivationFailureRollsBack(t *testing.T) {
	gateway := &gatewayStub{pushResult: &daraja.STKPushResult{CheckoutRequestID: "ws_CO_1"}}
	activator := &activatorStub{err: errors.New("subscription store down")}
	svc, _ := setupPaymentService(t, gateway, activator)

	rec := initiatePending(t, svc, 42, config.PlanMonthly)
	_, err := svc.ApplyStatus(context.Background(), rec.CheckoutRequestID, domain.StatusReport{
		ResultCode: strptr("0"),
		ResultDesc: "ok",
		Amount:     int64ptr(300),
	})
	if err == nil {
		t.Fatal("expected activation failure to surface")
	}

	// The whole transition rolled back, so a retry can still succeed.
	got, ferr := svc.CheckStatus(context.Background(), 42, rec.CheckoutRequestID)
	if ferr != nil {
		t.Fatalf("check status: %v", ferr)
	}
	if got.Status != domain.StatusPending {
		t.Errorf("status = %s, want PENDING after rollback", got.Status)
	}
	if got.SubscriptionActivated {
		t.Error("subscription_activated = true after rollback")
	}

	activator.err = nil
	after, err := svc.ApplyStatus(context.Background(), rec.CheckoutRequestID, domain.StatusReport{
		ResultCode: strptr("0"),
		ResultDesc: "ok",
		Amount:     int64ptr(300),
	})
	if err != nil {
		t.Fatalf("retry apply: %v", err)
	}
	if after.Status != domain.StatusCompleted || !after.SubscriptionActivated {
		t.Errorf("retry outcome = %s activated=%v", after.Status, after.SubscriptionActivated)
	}
}

func TestPaidAmountOverridesRequestedPlan(t *testing.T) {
	gateway := &gatewayStub{pushResult: &daraja.STKPushResult{CheckoutRequestID: "ws_CO_1"}}
	activator := &activatorStub{}
	svc, _ := setupPaymentService(t, gateway, activator)

	rec := initiatePending(t, svc, 42, config.PlanMonthly)
	got, err := svc.ApplyStatus(context.Background(), rec.CheckoutRequestID, domain.StatusReport{
		ResultCode: strptr("0"),
		ResultDesc: "ok",
		Amount:     int64ptr(3600),
	})
	if err != nil {
		t.Fatalf("apply status: %v", err)
	}
	if got.Plan != config.PlanYearly {
		t.Errorf("plan = %q, want yearly for a 3600 payment", got.Plan)
	}
	if got.Amount != 3600 {
		t.Errorf("amount = %d, want 3600", got.Amount)
	}
	if len(activator.months) != 1 || activator.months[0] != 12 {
		t.Errorf("months = %v, want [12]", activator.months)
	}
}

func TestCancelledCallbackStoresDiagnostics(t *testing.T) {
	gateway := &gatewayStub{pushResult: &daraja.STKPushResult{CheckoutRequestID: "ws_CO_1"}}
	activator := &activatorStub{}
	svc, _ := setupPaymentService(t, gateway, activator)

	rec := initiatePending(t, svc, 42, config.PlanMonthly)
	got, err := svc.ApplyStatus(context.Background(), rec.CheckoutRequestID, domain.StatusReport{
		ResultCode: strptr("1032"),
		ResultDesc: "Request cancelled by user",
	})
	if err != nil {
		t.Fatalf("apply status: %v", err)
	}
	if got.Status != domain.StatusCancelled {
		t.Errorf("status = %s, want CANCELLED", got.Status)
	}
	if got.ResultCode == nil || *got.ResultCode != "1032" {
		t.Errorf("result_code = %v, want 1032", got.ResultCode)
	}
	if got.ResultDesc != "Request cancelled by user" {
		t.Errorf("result_desc = %q", got.ResultDesc)
	}
	if got.SubscriptionActivated || activator.Calls() != 0 {
		t.Error("cancelled payment must not activate a subscription")
	}
	if got.CompletedAt != nil {
		t.Errorf("completed_at = %v, want unset on a cancelled payment", got.CompletedAt)
	}
}

func TestTerminalStateIsImmutable(t *testing.T) {
	gateway := &gatewayStub{pushResult: &daraja.STKPushResult{CheckoutRequestID: "ws_CO_1"}}
	activator := &activatorStub{}
	svc, _ := setupPaymentService(t, gateway, activator)

	rec := initiatePending(t, svc, 42, config.PlanMonthly)
	if _, err := svc.ApplyStatus(context.Background(), rec.CheckoutRequestID, domain.StatusReport{
		ResultCode: strptr("1032"),
		ResultDesc: "Request cancelled by user",
	}); err != nil {
		t.Fatalf("first apply: %v", err)
	}

	// A late success report must not resurrect a settled attempt.
	got, err := svc.ApplyStatus(context.Background(), rec.CheckoutRequestID, domain.StatusReport{
		ResultCode: strptr("0"),
		ResultDesc: "ok",
		Amount:     int64ptr(300),
	})
	if err != nil {
		t.Fatalf("late apply: %v", err)
	}
	if got.Status != domain.StatusCancelled {
		t.Errorf("status = %s, want CANCELLED to stick", got.Status)
	}
	if activator.Calls() != 0 {
		t.Errorf("activations = %d, want 0", activator.Calls())
	}
}

func TestCallbackForUnknownPaymentIsDropped(t *testing.T) {
	gateway := &gatewayStub{pushResult: &daraja.STKPushResult{CheckoutRequestID: "ws_CO_1"}}
	svc, _ := setupPaymentService(t, gateway, &activatorStub{})

	if err := svc.HandleCallback(context.Background(), successCallback("ws_CO_nobody", 300)); err != nil {
		t.Fatalf("unknown callback should be swallowed, got %v", err)
	}

	if err := svc.HandleCallback(context.Background(), []byte("not json")); err == nil {
		t.Fatal("malformed callback should error")
	}
}

func TestCheckStatusPollsWhilePending(t *testing.T) {
	gateway := &gatewayStub{
		pushResult:  &daraja.STKPushResult{CheckoutRequestID: "ws_CO_1"},
		queryResult: &daraja.STKQueryResult{ResultDesc: "still processing"},
	}
	svc, _ := setupPaymentService(t, gateway, &activatorStub{})

	rec := initiatePending(t, svc, 42, config.PlanMonthly)

	got, err := svc.CheckStatus(context.Background(), 42, rec.CheckoutRequestID)
	if err != nil {
		t.Fatalf("check status: %v", err)
	}
	if got.Status != domain.StatusPending {
		t.Errorf("status = %s, want PENDING without a verdict", got.Status)
	}

	gateway.queryResult = &daraja.STKQueryResult{
		ResultCode: strptr("1037"),
		ResultDesc: "DS timeout user cannot be reached",
	}
	got, err = svc.CheckStatus(context.Background(), 42, rec.CheckoutRequestID)
	if err != nil {
		t.Fatalf("check status: %v", err)
	}
	if got.Status != domain.StatusTimedOut {
		t.Errorf("status = %s, want TIMED_OUT", got.Status)
	}

	// Terminal now, so no further gateway round-trips.
	before := gateway.queries
	if _, err := svc.CheckStatus(context.Background(), 42, rec.CheckoutRequestID); err != nil {
		t.Fatalf("check status: %v", err)
	}
	if gateway.queries != before {
		t.Errorf("queries = %d, want %d after terminal", gateway.queries, before)
	}
}

func TestCheckStatusGatewayFaultIsRetryable(t *testing.T) {
	gateway := &gatewayStub{
		pushResult: &daraja.STKPushResult{CheckoutRequestID: "ws_CO_1"},
		queryErr:   daraja.ErrTimeout,
	}
	svc, db := setupPaymentService(t, gateway, &activatorStub{})

	rec := initiatePending(t, svc, 42, config.PlanMonthly)
	_, err := svc.CheckStatus(context.Background(), 42, rec.CheckoutRequestID)
	if !errors.Is(err, domain.ErrGatewayUnavailable) {
		t.Fatalf("err = %v, want ErrGatewayUnavailable", err)
	}

	// The fault never counts as a verdict; the record stays PENDING for the
	// callback or a later poll.
	var status string
	if err := db.Raw(`SELECT status FROM payments WHERE checkout_request_id = ?`,
		rec.CheckoutRequestID).Scan(&status).Error; err != nil {
		t.Fatalf("read status: %v", err)
	}
	if status != string(domain.StatusPending) {
		t.Errorf("status = %s, want PENDING after gateway fault", status)
	}

	gateway.queryErr = nil
	got, err := svc.CheckStatus(context.Background(), 42, rec.CheckoutRequestID)
	if err != nil {
		t.Fatalf("retry check status: %v", err)
	}
	if got.Status != domain.StatusPending {
		t.Errorf("status = %s, want PENDING once the gateway answers without a verdict", got.Status)
	}
}

func TestCheckStatusNoVerdictKeepsPending(t *testing.T) {
	gateway := &gatewayStub{pushResult: &daraja.STKPushResult{CheckoutRequestID: "ws_CO_1"}}
	svc, _ := setupPaymentService(t, gateway, &activatorStub{})

	rec := initiatePending(t, svc, 42, config.PlanMonthly)
	got, err := svc.CheckStatus(context.Background(), 42, rec.CheckoutRequestID)
	if err != nil {
		t.Fatalf("check status: %v", err)
	}
	if got.Status != domain.StatusPending {
		t.Errorf("status = %s, want PENDING while the gateway has no verdict", got.Status)
	}
	if got.CompletedAt != nil {
		t.Errorf("completed_at = %v, want unset", got.CompletedAt)
	}
}

func TestCheckStatusScopedToOwner(t *testing.T) {
	gateway := &gatewayStub{pushResult: &daraja.STKPushResult{CheckoutRequestID: "ws_CO_1"}}
	svc, _ := setupPaymentService(t, gateway, &activatorStub{})

	rec := initiatePending(t, svc, 42, config.PlanMonthly)
	if _, err := svc.CheckStatus(context.Background(), 99, rec.CheckoutRequestID); !errors.Is(err, domain.ErrPaymentNotFound) {
		t.Errorf("err = %v, want ErrPaymentNotFound for another user", err)
	}
}
