package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/voucher-console/internal/application/voucher"
)

// VoucherHandler proxies voucher reads and updates to the backend.
type VoucherHandler struct {
	responder
	svc voucher.Service
}

func NewVoucherHandler(svc voucher.Service, alerter Alerter) *VoucherHandler {
	return &VoucherHandler{responder: responder{alerter: alerter}, svc: svc}
}

func (h *VoucherHandler) List(w http.ResponseWriter, r *http.Request) {
	body, err := h.svc.List(r.Context(), chi.URLParam(r, "resource"), r.URL.Query())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeRaw(w, http.StatusOK, body)
}

func (h *VoucherHandler) Get(w http.ResponseWriter, r *http.Request) {
	body, err := h.svc.Get(r.Context(), chi.URLParam(r, "resource"), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeRaw(w, http.StatusOK, body)
}

func (h *VoucherHandler) Update(w http.ResponseWriter, r *http.Request) {
	in, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	body, err := h.svc.Update(r.Context(), chi.URLParam(r, "resource"), chi.URLParam(r, "id"), json.RawMessage(in))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeRaw(w, http.StatusOK, body)
}

func (h *VoucherHandler) Counts(w http.ResponseWriter, r *http.Request) {
	body, err := h.svc.Counts(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeRaw(w, http.StatusOK, body)
}
