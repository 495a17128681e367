package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/voucher-console/internal/domain"
	jwtinfra "github.com/voucher-console/internal/infrastructure/jwt"
	"github.com/voucher-console/internal/transport/http/middleware"
)

// --- mocks ---

type mockIssuer struct{ mock.Mock }

func (m *mockIssuer) Issue(ctx context.Context, req domain.IssueRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

type mockDeleter struct{ mock.Mock }

func (m *mockDeleter) VerifyAndDelete(ctx context.Context, req domain.DeletionRequest) (json.RawMessage, error) {
	args := m.Called(ctx, req)
	if b, _ := args.Get(0).(json.RawMessage); b != nil {
		return b, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockAlerter struct{ mock.Mock }

func (m *mockAlerter) Alert(ctx context.Context, subject, message string) error {
	return m.Called(ctx, subject, message).Error(0)
}

type mockVoucherSvc struct{ mock.Mock }

func raw(args mock.Arguments) (json.RawMessage, error) {
	if b, _ := args.Get(0).(json.RawMessage); b != nil {
		return b, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockVoucherSvc) List(ctx context.Context, resource string, query url.Values) (json.RawMessage, error) {
	return raw(m.Called(ctx, resource, query))
}
func (m *mockVoucherSvc) Get(ctx context.Context, resource, id string) (json.RawMessage, error) {
	return raw(m.Called(ctx, resource, id))
}
func (m *mockVoucherSvc) Update(ctx context.Context, resource, id string, body json.RawMessage) (json.RawMessage, error) {
	return raw(m.Called(ctx, resource, id, body))
}
func (m *mockVoucherSvc) Counts(ctx context.Context) (json.RawMessage, error) {
	return raw(m.Called(ctx))
}

// --- helpers ---

func post(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	return postCtx(context.Background(), h, body)
}

func postCtx(ctx context.Context, h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/otp", strings.NewReader(body)).WithContext(ctx)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

const deleteBody = `{"otp":"123456","email":"a@b.com","itemType":"cash-voucher","itemId":"42"}`

// --- OTP issue ---

func TestIssue_OK(t *testing.T) {
	iss := &mockIssuer{}
	req := domain.IssueRequest{Email: "a@b.com", Action: "delete", ItemType: "cash-voucher", ItemName: "CV-42"}
	iss.On("Issue", mock.Anything, req).Return("a@b.com-delete-01J", nil)
	h := NewOTPHandler(iss, &mockDeleter{}, nil, false)

	rr := post(h.Issue, `{"email":"a@b.com","action":"delete","itemType":"cash-voucher","itemName":"CV-42"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"message":"OTP sent successfully","issuanceKey":"a@b.com-delete-01J"}`, rr.Body.String())
}

func TestIssue_InvalidEmail(t *testing.T) {
	iss := &mockIssuer{}
	iss.On("Issue", mock.Anything, mock.Anything).
		Return("", fmt.Errorf("please enter a valid email address: %w", domain.ErrValidation))
	h := NewOTPHandler(iss, &mockDeleter{}, nil, false)

	rr := post(h.Issue, `{"email":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"message":"Please enter a valid email address"}`, rr.Body.String())
}

func TestIssue_MalformedBody(t *testing.T) {
	h := NewOTPHandler(&mockIssuer{}, &mockDeleter{}, nil, false)
	rr := post(h.Issue, `{`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestIssue_DeliveryFailure(t *testing.T) {
	iss := &mockIssuer{}
	iss.On("Issue", mock.Anything, mock.Anything).
		Return("", fmt.Errorf("failed to send OTP: %w: %w", domain.ErrDelivery, errors.New("dial tcp: refused")))
	h := NewOTPHandler(iss, &mockDeleter{}, nil, false)

	rr := post(h.Issue, `{"email":"a@b.com"}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"message":"Failed to send OTP"}`, rr.Body.String())
}

func TestIssue_ConfigurationErrorRaisesAlert(t *testing.T) {
	iss := &mockIssuer{}
	iss.On("Issue", mock.Anything, mock.Anything).
		Return("", fmt.Errorf("SMTP host and sender must be set: %w", domain.ErrConfiguration))
	al := &mockAlerter{}
	al.On("Alert", mock.Anything, "voucher console configuration error", mock.MatchedBy(func(m string) bool {
		return strings.Contains(m, "SMTP host")
	})).Return(nil)
	h := NewOTPHandler(iss, &mockDeleter{}, al, false)

	rr := post(h.Issue, `{"email":"a@b.com"}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"message":"SMTP host and sender must be set"}`, rr.Body.String())
	al.AssertExpectations(t)
}

// --- OTP verify-and-delete ---

func TestVerifyAndDelete_OK(t *testing.T) {
	del := &mockDeleter{}
	del.On("VerifyAndDelete", mock.Anything, domain.DeletionRequest{
		OTP: "123456", Email: "a@b.com", ItemType: "cash-voucher", ItemID: "42",
	}).Return(json.RawMessage(`{"message":"deleted"}`), nil)
	h := NewOTPHandler(&mockIssuer{}, del, nil, false)

	rr := post(h.VerifyAndDelete, deleteBody)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"message":"Item deleted successfully"}`, rr.Body.String())
}

func TestVerifyAndDelete_NumericItemID(t *testing.T) {
	del := &mockDeleter{}
	del.On("VerifyAndDelete", mock.Anything, domain.DeletionRequest{
		OTP: "123456", Email: "a@b.com", ItemType: "cash-voucher", ItemID: "42",
	}).Return(json.RawMessage(`{"message":"deleted"}`), nil)
	h := NewOTPHandler(&mockIssuer{}, del, nil, false)

	rr := post(h.VerifyAndDelete, `{"otp":"123456","email":"a@b.com","itemType":"cash-voucher","itemId":42}`)
	assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	del.AssertExpectations(t)
}

func TestVerifyAndDelete_ItemIDOfWrongKind(t *testing.T) {
	del := &mockDeleter{}
	h := NewOTPHandler(&mockIssuer{}, del, nil, false)

	rr := post(h.VerifyAndDelete, `{"otp":"123456","email":"a@b.com","itemType":"cash-voucher","itemId":{"id":42}}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	del.AssertNotCalled(t, "VerifyAndDelete", mock.Anything, mock.Anything)
}

func TestVerifyAndDelete_InvalidOrExpired(t *testing.T) {
	del := &mockDeleter{}
	del.On("VerifyAndDelete", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("verify otp: %w", domain.ErrInvalidOrExpired))
	h := NewOTPHandler(&mockIssuer{}, del, nil, false)

	rr := post(h.VerifyAndDelete, deleteBody)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"message":"Invalid or expired OTP"}`, rr.Body.String())
}

func TestVerifyAndDelete_MissingFields(t *testing.T) {
	del := &mockDeleter{}
	del.On("VerifyAndDelete", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("missing required fields: %w", domain.ErrValidation))
	h := NewOTPHandler(&mockIssuer{}, del, nil, false)

	rr := post(h.VerifyAndDelete, `{"otp":"123456"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"message":"Missing required fields"}`, rr.Body.String())
}

func TestVerifyAndDelete_BackendErrorMirrorsStatus(t *testing.T) {
	del := &mockDeleter{}
	del.On("VerifyAndDelete", mock.Anything, mock.Anything).Return(nil, &domain.BackendError{
		Status:  422,
		Message: "Voucher is locked",
		Details: map[string]any{"id": []any{"locked"}},
	})
	h := NewOTPHandler(&mockIssuer{}, del, nil, false)

	rr := post(h.VerifyAndDelete, deleteBody)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.JSONEq(t, `{"message":"Voucher is locked","details":{"id":["locked"]}}`, rr.Body.String())
}

func TestVerifyAndDelete_UnhandledErrorIsGeneric(t *testing.T) {
	del := &mockDeleter{}
	del.On("VerifyAndDelete", mock.Anything, mock.Anything).Return(nil, errors.New("redis: connection refused"))
	h := NewOTPHandler(&mockIssuer{}, del, nil, false)

	rr := post(h.VerifyAndDelete, deleteBody)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"message":"Internal server error"}`, rr.Body.String())
}

// --- token email binding ---

func TestBinding_RequiresClaims(t *testing.T) {
	h := NewOTPHandler(&mockIssuer{}, &mockDeleter{}, nil, true)
	rr := post(h.VerifyAndDelete, deleteBody)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestBinding_RejectsOtherEmail(t *testing.T) {
	h := NewOTPHandler(&mockIssuer{}, &mockDeleter{}, nil, true)
	ctx := middleware.WithClaims(context.Background(), &jwtinfra.Claims{Email: "someone@else.com"})
	rr := postCtx(ctx, h.Issue, `{"email":"a@b.com"}`)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.JSONEq(t, `{"message":"Email does not match the signed-in user"}`, rr.Body.String())
}

func TestBinding_AcceptsOwnEmail(t *testing.T) {
	iss := &mockIssuer{}
	iss.On("Issue", mock.Anything, mock.Anything).Return("k", nil)
	h := NewOTPHandler(iss, &mockDeleter{}, nil, true)
	ctx := middleware.WithClaims(context.Background(), &jwtinfra.Claims{Email: "A@B.com"})
	rr := postCtx(ctx, h.Issue, `{"email":"a@b.com"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
}

// --- vouchers ---

func serveVoucher(h *VoucherHandler, method, target, body string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Get("/vouchers/counts", h.Counts)
	r.Get("/{resource}", h.List)
	r.Get("/{resource}/{id}", h.Get)
	r.Put("/{resource}/{id}", h.Update)
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestVoucher_Get(t *testing.T) {
	svc := &mockVoucherSvc{}
	svc.On("Get", mock.Anything, "cash-vouchers", "7").Return(json.RawMessage(`{"id":7}`), nil)
	rr := serveVoucher(NewVoucherHandler(svc, nil), http.MethodGet, "/cash-vouchers/7", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"id":7}`, rr.Body.String())
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
}

func TestVoucher_ListPassesQuery(t *testing.T) {
	svc := &mockVoucherSvc{}
	svc.On("List", mock.Anything, "cheque-vouchers", url.Values{"page": {"3"}}).Return(json.RawMessage(`{"data":[]}`), nil)
	rr := serveVoucher(NewVoucherHandler(svc, nil), http.MethodGet, "/cheque-vouchers?page=3", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

func TestVoucher_UnknownResourceIs404(t *testing.T) {
	svc := &mockVoucherSvc{}
	svc.On("Get", mock.Anything, "users", "1").Return(nil, fmt.Errorf("unknown resource %q: %w", "users", domain.ErrNotFound))
	rr := serveVoucher(NewVoucherHandler(svc, nil), http.MethodGet, "/users/1", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestVoucher_UpdateForwardsBody(t *testing.T) {
	svc := &mockVoucherSvc{}
	svc.On("Update", mock.Anything, "cash-vouchers", "7", json.RawMessage(`{"status":"approved"}`)).
		Return(json.RawMessage(`{"id":7,"status":"approved"}`), nil)
	rr := serveVoucher(NewVoucherHandler(svc, nil), http.MethodPut, "/cash-vouchers/7", `{"status":"approved"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"id":7,"status":"approved"}`, rr.Body.String())
}

func TestVoucher_Counts(t *testing.T) {
	svc := &mockVoucherSvc{}
	svc.On("Counts", mock.Anything).Return(json.RawMessage(`{"cash":1}`), nil)
	rr := serveVoucher(NewVoucherHandler(svc, nil), http.MethodGet, "/vouchers/counts", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"cash":1}`, rr.Body.String())
}

// --- misc ---

func TestPublicMessage(t *testing.T) {
	assert.Equal(t, "Missing required fields", publicMessage(fmt.Errorf("missing required fields: %w", domain.ErrValidation)))
	assert.Equal(t, "Plain", publicMessage(errors.New("plain")))
	assert.Equal(t, "", publicMessage(errors.New("")))
}

func TestPing(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/health-check/{action}", NewHealthHandler().Ping)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health-check/ping", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"message":"pong"}`, rr.Body.String())

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health-check/other", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
