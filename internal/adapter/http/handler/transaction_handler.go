package handler

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/iho/bankbook/internal/adapter/http/dto"
	"github.com/iho/bankbook/internal/domain"
	"github.com/iho/bankbook/internal/usecase"
)

// TransactionService defines the behavior needed by TransactionHandler.
type TransactionService interface {
	AddTransaction(ctx context.Context, id int, kind domain.TransactionKind, amount float64) (*usecase.TransactionOutcome, error)
	Deposit(ctx context.Context, id int, amount decimal.Decimal) (*usecase.TransactionOutcome, error)
	Withdraw(ctx context.Context, id int, amount decimal.Decimal) (*usecase.TransactionOutcome, error)
	ChargeManagementFee(ctx context.Context, id int) (*usecase.TransactionOutcome, error)
	GetTransactions(ctx context.Context, id int) ([]domain.Transaction, error)
}

// TransactionHandler handles transaction-related HTTP requests.
type TransactionHandler struct {
	transactionUC TransactionService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionUC TransactionService) *TransactionHandler {
	return &TransactionHandler{transactionUC: transactionUC}
}

// List returns the history of an account. Unknown accounts have an empty
// history.
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	id, err := parseAccountID(r)
	if err != nil {
		writeDomainError(w, "invalid account ID", err)
		return
	}

	transactions, err := h.transactionUC.GetTransactions(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to list transactions", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionsResponse{
		AccountID:    id,
		Transactions: dto.TransactionsFromDomain(transactions),
	})
}

// Create admits a raw transaction with a signed amount.
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, err := parseAccountID(r)
	if err != nil {
		writeDomainError(w, "invalid account ID", err)
		return
	}

	var req dto.AddTransactionRequest
	if err := decodeBody(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	outcome, err := h.transactionUC.AddTransaction(r.Context(), id, req.Kind(), req.Amount.InexactFloat64())
	h.respond(w, outcome, err)
}

// Deposit credits a positive amount.
func (h *TransactionHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.withAmount(w, r, h.transactionUC.Deposit)
}

// Withdraw debits a positive amount.
func (h *TransactionHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.withAmount(w, r, h.transactionUC.Withdraw)
}

// ChargeManagementFee debits the account's management fee.
func (h *TransactionHandler) ChargeManagementFee(w http.ResponseWriter, r *http.Request) {
	id, err := parseAccountID(r)
	if err != nil {
		writeDomainError(w, "invalid account ID", err)
		return
	}

	outcome, err := h.transactionUC.ChargeManagementFee(r.Context(), id)
	h.respond(w, outcome, err)
}

func (h *TransactionHandler) withAmount(
	w http.ResponseWriter,
	r *http.Request,
	apply func(context.Context, int, decimal.Decimal) (*usecase.TransactionOutcome, error),
) {
	id, err := parseAccountID(r)
	if err != nil {
		writeDomainError(w, "invalid account ID", err)
		return
	}

	var req dto.AmountRequest
	if err := decodeBody(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	outcome, err := apply(r.Context(), id, req.Amount)
	h.respond(w, outcome, err)
}

func (h *TransactionHandler) respond(w http.ResponseWriter, outcome *usecase.TransactionOutcome, err error) {
	if err != nil {
		writeTransactionError(w, outcome, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionOutcomeResponse{
		Result:  outcome.Result.String(),
		Account: dto.AccountFromDomain(outcome.Account),
	})
}
