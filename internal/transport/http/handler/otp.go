package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/voucher-console/internal/application/deletion"
	"github.com/voucher-console/internal/domain"
	"github.com/voucher-console/internal/transport/http/middleware"
)

// Issuer mints and mails deletion codes.
type Issuer interface {
	Issue(ctx context.Context, req domain.IssueRequest) (string, error)
}

// OTPHandler serves the two steps of the confirmed-deletion flow.
type OTPHandler struct {
	responder
	issuer  Issuer
	deleter deletion.Service
	// bindEmail requires the body email to equal the bearer token's email claim.
	bindEmail bool
}

func NewOTPHandler(issuer Issuer, deleter deletion.Service, alerter Alerter, bindEmail bool) *OTPHandler {
	return &OTPHandler{
		responder: responder{alerter: alerter},
		issuer:    issuer,
		deleter:   deleter,
		bindEmail: bindEmail,
	}
}

func (h *OTPHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var req domain.IssueRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.checkEmail(r, req.Email); err != nil {
		h.fail(w, r, err)
		return
	}
	key, err := h.issuer.Issue(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, IssueEnvelope{Message: "OTP sent successfully", IssuanceKey: key})
}

func (h *OTPHandler) VerifyAndDelete(w http.ResponseWriter, r *http.Request) {
	var req domain.DeletionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.checkEmail(r, req.Email); err != nil {
		h.fail(w, r, err)
		return
	}
	if _, err := h.deleter.VerifyAndDelete(r.Context(), req); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Item deleted successfully"})
}

// checkEmail enforces the optional token binding. An empty email is left for
// the services to reject as a validation error.
func (h *OTPHandler) checkEmail(r *http.Request, email string) error {
	if !h.bindEmail || email == "" {
		return nil
	}
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return fmt.Errorf("sign in required: %w", domain.ErrUnauthorized)
	}
	if !strings.EqualFold(strings.TrimSpace(claims.Email), strings.TrimSpace(email)) {
		return fmt.Errorf("email does not match the signed-in user: %w", domain.ErrForbidden)
	}
	return nil
}
