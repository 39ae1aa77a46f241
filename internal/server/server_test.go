package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	authdomain "github.com/elimisha-app/elimisha/internal/auth/domain"
	"github.com/elimisha-app/elimisha/internal/auth/session"
	"github.com/elimisha-app/elimisha/internal/config"
	exportdomain "github.com/elimisha-app/elimisha/internal/export/domain"
	paymentdomain "github.com/elimisha-app/elimisha/internal/payment/domain"
)

type fakeAuthService struct {
	signUpCalls int
	loginCalls  int
	user        *authdomain.User
}

func (f *fakeAuthService) SignUp(ctx context.Context, req authdomain.SignUpRequest) (*authdomain.User, error) {
	f.signUpCalls++
	return &authdomain.User{ID: snowflake.ID(200), Email: req.Email, Tier: authdomain.TierFree}, nil
}

func (f *fakeAuthService) Login(ctx context.Context, req authdomain.LoginRequest) (*authdomain.LoginResult, error) {
	f.loginCalls++
	return &authdomain.LoginResult{
		User:      &authdomain.User{ID: snowflake.ID(200), Email: req.Email, Tier: authdomain.TierFree},
		RawToken:  "session-token",
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil
}

func (f *fakeAuthService) Logout(ctx context.Context, rawToken string) error {
	return nil
}

func (f *fakeAuthService) ResolveSession(ctx context.Context, rawToken string) (*authdomain.User, error) {
	if f.user == nil {
		return nil, authdomain.ErrInvalidSession
	}
	return f.user, nil
}

type fakePaymentService struct {
	callbackErr   error
	callbackCalls int
	lastPayload   []byte
	record        *paymentdomain.PaymentRecord
	checkErr      error
}

func (f *fakePaymentService) Initiate(ctx context.Context, req paymentdomain.InitiateRequest) (*paymentdomain.PaymentRecord, error) {
	return f.record, nil
}

func (f *fakePaymentService) HandleCallback(ctx context.Context, payload []byte) error {
	f.callbackCalls++
	f.lastPayload = payload
	return f.callbackErr
}

func (f *fakePaymentService) CheckStatus(ctx context.Context, userID int64, checkoutRequestID string) (*paymentdomain.PaymentRecord, error) {
	if f.checkErr != nil {
		return nil, f.checkErr
	}
	return f.record, nil
}

func (f *fakePaymentService) ApplyStatus(ctx context.Context, checkoutRequestID string, report paymentdomain.StatusReport) (*paymentdomain.PaymentRecord, error) {
	return f.record, nil
}

type fakeExportService struct {
	export *exportdomain.Export
}

func (f *fakeExportService) HistoryCSV(ctx context.Context, userID int64) (*exportdomain.Export, error) {
	return f.export, nil
}

func (f *fakeExportService) ProgressCSV(ctx context.Context, userID int64) (*exportdomain.Export, error) {
	return f.export, nil
}

func (f *fakeExportService) FullReportCSV(ctx context.Context, user *authdomain.User) (*exportdomain.Export, error) {
	return f.export, nil
}

func newTestServer() *Server {
	return &Server{
		cfg:      config.Config{},
		log:      zap.NewNop(),
		sessions: session.NewManager(config.Config{}),
	}
}

func setUser(user *authdomain.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(contextUserKey, user)
		c.Next()
	}
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandlingMiddleware())
	return r
}

func postJSON(t *testing.T, router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestSignupSetsSessionCookie(t *testing.T) {
	authSvc := &fakeAuthService{}
	srv := newTestServer()
	srv.authSvc = authSvc

	router := newRouter()
	router.POST("/auth/signup", srv.SignUp)

	resp := postJSON(t, router, "/auth/signup", `{"email":"amina@example.com","password":"correct horse"}`)

	if resp.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", resp.Code, resp.Body.String())
	}
	if authSvc.signUpCalls != 1 || authSvc.loginCalls != 1 {
		t.Fatalf("signUpCalls = %d, loginCalls = %d", authSvc.signUpCalls, authSvc.loginCalls)
	}

	var sessionCookie *http.Cookie
	for _, ck := range resp.Result().Cookies() {
		if ck.Name == session.DefaultCookieName {
			sessionCookie = ck
		}
	}
	if sessionCookie == nil || sessionCookie.Value != "session-token" {
		t.Fatalf("session cookie not set: %+v", resp.Result().Cookies())
	}
	if !sessionCookie.HttpOnly {
		t.Error("session cookie must be http-only")
	}
}

func TestSignupRejectsMissingFields(t *testing.T) {
	srv := newTestServer()
	srv.authSvc = &fakeAuthService{}

	router := newRouter()
	router.POST("/auth/signup", srv.SignUp)

	resp := postJSON(t, router, "/auth/signup", `{"email":"amina@example.com"}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.Code)
	}
}

func TestAuthRequiredRejectsMissingCookie(t *testing.T) {
	srv := newTestServer()
	srv.authSvc = &fakeAuthService{}

	router := newRouter()
	router.GET("/api/responses", srv.AuthRequired(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{})
	})

	req := httptest.NewRequest(http.MethodGet, "/api/responses", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", resp.Code)
	}
}

func TestMpesaCallbackAcknowledgesKnownAndUnknown(t *testing.T) {
	paymentSvc := &fakePaymentService{}
	srv := newTestServer()
	srv.paymentSvc = paymentSvc

	router := newRouter()
	router.POST("/api/subscription/mpesa-callback", srv.MpesaCallback)

	payload := `{"Body":{"stkCallback":{"CheckoutRequestID":"ws_CO_1","ResultCode":0,"ResultDesc":"ok"}}}`
	resp := postJSON(t, router, "/api/subscription/mpesa-callback", payload)

	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d", resp.Code)
	}
	var ack struct {
		ResultCode int    `json:"ResultCode"`
		ResultDesc string `json:"ResultDesc"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &ack); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	if ack.ResultCode != 0 || ack.ResultDesc != "Accepted" {
		t.Fatalf("ack = %+v", ack)
	}
	if paymentSvc.callbackCalls != 1 || !strings.Contains(string(paymentSvc.lastPayload), "ws_CO_1") {
		t.Fatalf("callback not forwarded: calls=%d payload=%s", paymentSvc.callbackCalls, paymentSvc.lastPayload)
	}
}

func TestMpesaCallbackRejectsMalformedWithHTTP200(t *testing.T) {
	paymentSvc := &fakePaymentService{callbackErr: errors.New("malformed payload")}
	srv := newTestServer()
	srv.paymentSvc = paymentSvc

	router := newRouter()
	router.POST("/api/subscription/mpesa-callback", srv.MpesaCallback)

	resp := postJSON(t, router, "/api/subscription/mpesa-callback", `not json`)

	// The gateway only understands its own ack shape, so even rejects go back
	// as HTTP 200.
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d", resp.Code)
	}
	var ack struct {
		ResultCode int `json:"ResultCode"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &ack); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	if ack.ResultCode != 1 {
		t.Fatalf("ResultCode = %d, want 1", ack.ResultCode)
	}
}

func TestCheckPaymentShape(t *testing.T) {
	completedAt := time.Now().UTC()
	paymentSvc := &fakePaymentService{
		record: &paymentdomain.PaymentRecord{
			CheckoutRequestID:     "ws_CO_9",
			Status:                paymentdomain.StatusCompleted,
			ResultDesc:            "The service request is processed successfully.",
			SubscriptionActivated: true,
			CompletedAt:           &completedAt,
		},
	}
	srv := newTestServer()
	srv.paymentSvc = paymentSvc

	user := &authdomain.User{ID: snowflake.ID(7), Tier: authdomain.TierFree}
	router := newRouter()
	router.POST("/api/subscription/check-payment", setUser(user), srv.CheckPayment)

	resp := postJSON(t, router, "/api/subscription/check-payment", `{"checkout_request_id":"ws_CO_9"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", resp.Code, resp.Body.String())
	}

	var body struct {
		Success               bool   `json:"success"`
		Status                string `json:"status"`
		Completed             bool   `json:"completed"`
		Message               string `json:"message"`
		SubscriptionActivated bool   `json:"subscription_activated"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success || !body.Completed || !body.SubscriptionActivated {
		t.Fatalf("body = %+v", body)
	}
	if body.Status != "COMPLETED" {
		t.Errorf("status = %q", body.Status)
	}
	if body.Message != "Payment completed successfully" {
		t.Errorf("message = %q", body.Message)
	}
}

func TestCheckPaymentUnknownIs404(t *testing.T) {
	paymentSvc := &fakePaymentService{checkErr: paymentdomain.ErrPaymentNotFound}
	srv := newTestServer()
	srv.paymentSvc = paymentSvc

	user := &authdomain.User{ID: snowflake.ID(7)}
	router := newRouter()
	router.POST("/api/subscription/check-payment", setUser(user), srv.CheckPayment)

	resp := postJSON(t, router, "/api/subscription/check-payment", `{"checkout_request_id":"ws_CO_other"}`)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("status = %d", resp.Code)
	}
}

func TestPremiumRequiredGatesExports(t *testing.T) {
	srv := newTestServer()
	srv.exportSvc = &fakeExportService{
		export: &exportdomain.Export{
			Filename:    "elimisha_history_20260831.csv",
			ContentType: "text/csv",
			Data:        []byte("Date,Concept\n"),
		},
	}

	freeUser := &authdomain.User{ID: snowflake.ID(7), Tier: authdomain.TierFree}
	premiumUser := &authdomain.User{ID: snowflake.ID(8), Tier: authdomain.TierPremium}

	router := newRouter()
	router.GET("/free/export/history-csv", setUser(freeUser), srv.PremiumRequired(), srv.ExportHistory)
	router.GET("/premium/export/history-csv", setUser(premiumUser), srv.PremiumRequired(), srv.ExportHistory)

	req := httptest.NewRequest(http.MethodGet, "/free/export/history-csv", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("free tier status = %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/premium/export/history-csv", nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("premium status = %d, body %s", resp.Code, resp.Body.String())
	}
	if cd := resp.Header().Get("Content-Disposition"); !strings.Contains(cd, "elimisha_history_20260831.csv") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if ct := resp.Header().Get("Content-Type"); !strings.Contains(ct, "text/csv") {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestPlansIncludesFreeAndPaidTiers(t *testing.T) {
	srv := newTestServer()
	srv.pricing = config.NewStaticPricingHolder(config.DefaultPricing())

	router := newRouter()
	router.GET("/api/subscription/plans", srv.Plans)

	req := httptest.NewRequest(http.MethodGet, "/api/subscription/plans", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d", resp.Code)
	}
	var body struct {
		Plans []planView `json:"plans"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Plans) != 3 {
		t.Fatalf("plans = %d, want free, monthly and yearly", len(body.Plans))
	}
	if body.Plans[0].Kind != "free" || body.Plans[0].PriceKES != 0 {
		t.Errorf("first plan = %+v, want free tier", body.Plans[0])
	}
	if body.Plans[2].Kind != config.PlanYearly || body.Plans[2].PriceKES != 3600 {
		t.Errorf("yearly plan = %+v", body.Plans[2])
	}
}
