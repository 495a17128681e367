package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/voucher-console/internal/domain"
)

const alertTimeout = 5 * time.Second

// Alerter reaches an operator. Implemented by the SNS alert publisher.
type Alerter interface {
	Alert(ctx context.Context, subject, message string) error
}

// responder maps service errors onto {message, details?} responses.
type responder struct {
	alerter Alerter
}

func (rs responder) fail(w http.ResponseWriter, r *http.Request, err error) {
	var be *domain.BackendError
	switch {
	case errors.As(err, &be):
		status := be.Status
		if status < 400 {
			status = http.StatusBadGateway
		}
		writeJSON(w, status, MessageEnvelope{Message: be.Message, Details: be.Details})
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, publicMessage(err))
	case errors.Is(err, domain.ErrInvalidOrExpired):
		writeError(w, http.StatusBadRequest, "Invalid or expired OTP")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, publicMessage(err))
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, publicMessage(err))
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, publicMessage(err))
	case errors.Is(err, domain.ErrDelivery):
		slog.Error("otp delivery failed", "path", r.URL.Path, "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to send OTP")
	case errors.Is(err, domain.ErrConfiguration):
		slog.Error("configuration error", "path", r.URL.Path, "err", err, "alert", true,
			"request_id", chimiddleware.GetReqID(r.Context()))
		rs.alert(r, err)
		writeError(w, http.StatusInternalServerError, publicMessage(err))
	default:
		slog.Error("unhandled error", "path", r.URL.Path, "err", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func (rs responder) alert(r *http.Request, err error) {
	if rs.alerter == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), alertTimeout)
	defer cancel()
	if aerr := rs.alerter.Alert(ctx, "voucher console configuration error", r.Method+" "+r.URL.Path+": "+err.Error()); aerr != nil {
		slog.Warn("could not publish alert", "err", aerr)
	}
}

// publicMessage keeps the outermost context of a wrapped error, which services
// phrase for end users, and drops the sentinel chain behind it.
func publicMessage(err error) string {
	msg, _, _ := strings.Cut(err.Error(), ": ")
	r, size := utf8.DecodeRuneInString(msg)
	if r == utf8.RuneError {
		return msg
	}
	return string(unicode.ToUpper(r)) + msg[size:]
}
