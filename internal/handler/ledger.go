package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/prasetya/credit-ledger/internal/domain"
	"github.com/prasetya/credit-ledger/internal/service"
	"github.com/prasetya/credit-ledger/pkg/response"
)

type LedgerHandler struct {
	ledger    *service.LedgerService
	payments  *service.PaymentService
	validator *validator.Validate
}

func NewLedgerHandler(ledger *service.LedgerService, payments *service.PaymentService) *LedgerHandler {
	return &LedgerHandler{
		ledger:    ledger,
		payments:  payments,
		validator: validator.New(),
	}
}

// CreateAccount handles POST /accounts
func (h *LedgerHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var request domain.CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}

	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "validation failed", err)
		return
	}

	customerID, err := uuid.Parse(request.CustomerID)
	if err != nil {
		response.BadRequest(w, "customer_id must be a UUID", err)
		return
	}

	account, err := h.ledger.CreateAccount(r.Context(), customerID, request.CreditLimit)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, domain.NewAccountResponse(account))
}

// GetAccount handles GET /accounts/{customerId}
func (h *LedgerHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	customerID, ok := h.customerID(w, r)
	if !ok {
		return
	}

	account, err := h.ledger.GetAccount(r.Context(), customerID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, account)
}

// DeleteAccount handles DELETE /accounts/{customerId}
func (h *LedgerHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	customerID, ok := h.customerID(w, r)
	if !ok {
		return
	}

	if err := h.ledger.DeleteAccount(r.Context(), customerID); err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, map[string]string{"message": "account deleted"})
}

// SetLimit handles PUT /accounts/{customerId}/limit
func (h *LedgerHandler) SetLimit(w http.ResponseWriter, r *http.Request) {
	customerID, ok := h.customerID(w, r)
	if !ok {
		return
	}

	var request domain.SetLimitRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}

	account, err := h.ledger.SetLimit(r.Context(), customerID, request.NewLimit)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, account)
}

// ExtendCredit handles POST /accounts/{customerId}/obligations
func (h *LedgerHandler) ExtendCredit(w http.ResponseWriter, r *http.Request) {
	customerID, ok := h.customerID(w, r)
	if !ok {
		return
	}

	var request domain.ExtendCreditRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}

	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "validation failed", err)
		return
	}

	obligation, err := h.ledger.ExtendCredit(r.Context(), customerID, &request)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, domain.NewObligationResponse(obligation))
}

// ListObligations handles GET /accounts/{customerId}/obligations
func (h *LedgerHandler) ListObligations(w http.ResponseWriter, r *http.Request) {
	customerID, ok := h.customerID(w, r)
	if !ok {
		return
	}

	obligations, err := h.ledger.ListObligations(r.Context(), customerID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, obligations)
}

// RecordPayment handles POST /accounts/{customerId}/payments
func (h *LedgerHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	customerID, ok := h.customerID(w, r)
	if !ok {
		return
	}

	var request domain.PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}

	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "validation failed", err)
		return
	}

	result, err := h.payments.RecordPayment(r.Context(), customerID, &request)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, result)
}

// ListPayments handles GET /accounts/{customerId}/payments
func (h *LedgerHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	customerID, ok := h.customerID(w, r)
	if !ok {
		return
	}

	payments, err := h.payments.GetPayments(r.Context(), customerID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, payments)
}

// ListPaymentAllocations handles GET /payments/{paymentId}/allocations
func (h *LedgerHandler) ListPaymentAllocations(w http.ResponseWriter, r *http.Request) {
	paymentID, err := uuid.Parse(mux.Vars(r)["paymentId"])
	if err != nil {
		response.BadRequest(w, "paymentId must be a UUID", err)
		return
	}

	allocations, err := h.payments.GetAllocations(r.Context(), paymentID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, allocations)
}

// CancelObligation handles POST /obligations/{obligationId}/cancel
func (h *LedgerHandler) CancelObligation(w http.ResponseWriter, r *http.Request) {
	obligationID, ok := h.obligationID(w, r)
	if !ok {
		return
	}

	obligation, err := h.ledger.CancelObligation(r.Context(), obligationID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, domain.NewObligationResponse(obligation))
}

// SettleObligation handles POST /obligations/{obligationId}/settle
func (h *LedgerHandler) SettleObligation(w http.ResponseWriter, r *http.Request) {
	obligationID, ok := h.obligationID(w, r)
	if !ok {
		return
	}

	obligation, err := h.ledger.SettleObligation(r.Context(), obligationID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, domain.NewObligationResponse(obligation))
}

// AgingReport handles GET /accounts/{customerId}/aging
func (h *LedgerHandler) AgingReport(w http.ResponseWriter, r *http.Request) {
	customerID, ok := h.customerID(w, r)
	if !ok {
		return
	}

	report, err := h.ledger.AgingReport(r.Context(), customerID, time.Now())
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, report)
}

func (h *LedgerHandler) customerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["customerId"])
	if err != nil {
		response.BadRequest(w, "customerId must be a UUID", err)
		return uuid.Nil, false
	}
	return id, true
}

func (h *LedgerHandler) obligationID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["obligationId"])
	if err != nil {
		response.BadRequest(w, "obligationId must be a UUID", err)
		return uuid.Nil, false
	}
	return id, true
}
