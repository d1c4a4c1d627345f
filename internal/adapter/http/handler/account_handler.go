package handler

import (
	"context"
	"net/http"

	"github.com/iho/bankbook/internal/adapter/http/dto"
	"github.com/iho/bankbook/internal/domain"
)

// AccountService defines the behavior needed by AccountHandler.
type AccountService interface {
	CreateAccount(ctx context.Context, nickname string) (*domain.Account, error)
	GetAccount(ctx context.Context, id int) (*domain.Account, error)
	ListAccounts(ctx context.Context) ([]int, error)
	DeleteAccount(ctx context.Context, id int) error
	UpdateNickname(ctx context.Context, id int, nickname string) (*domain.Account, error)
	UpdateSettings(ctx context.Context, id int, settings domain.AccountSettings) (*domain.Account, error)
	DefaultSettings() domain.AccountSettings
}

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	accountUC AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountUC AccountService) *AccountHandler {
	return &AccountHandler{accountUC: accountUC}
}

// Create creates a new account, optionally naming it.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAccountRequest
	if err := decodeBody(r, &req, true); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	account, err := h.accountUC.CreateAccount(r.Context(), req.Nickname)
	if err != nil {
		writeDomainError(w, "failed to create account", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.AccountFromDomain(account))
}

// Get retrieves an account by ID.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseAccountID(r)
	if err != nil {
		writeDomainError(w, "invalid account ID", err)
		return
	}

	account, err := h.accountUC.GetAccount(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to get account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// List lists account ids.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	ids, err := h.accountUC.ListAccounts(r.Context())
	if err != nil {
		writeDomainError(w, "failed to list accounts", err)
		return
	}

	if ids == nil {
		ids = []int{}
	}

	writeJSON(w, http.StatusOK, dto.ListAccountsResponse{Accounts: ids})
}

// Delete removes an account.
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseAccountID(r)
	if err != nil {
		writeDomainError(w, "invalid account ID", err)
		return
	}

	if err := h.accountUC.DeleteAccount(r.Context(), id); err != nil {
		writeDomainError(w, "failed to delete account", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UpdateNickname renames an account.
func (h *AccountHandler) UpdateNickname(w http.ResponseWriter, r *http.Request) {
	id, err := parseAccountID(r)
	if err != nil {
		writeDomainError(w, "invalid account ID", err)
		return
	}

	var req dto.UpdateNicknameRequest
	if err := decodeBody(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	account, err := h.accountUC.UpdateNickname(r.Context(), id, req.Nickname)
	if err != nil {
		writeDomainError(w, "failed to update nickname", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// UpdateSettings replaces the fee settings of an account.
func (h *AccountHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	id, err := parseAccountID(r)
	if err != nil {
		writeDomainError(w, "invalid account ID", err)
		return
	}

	var req dto.UpdateSettingsRequest
	if err := decodeBody(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	settings, err := req.ToDomain()
	if err != nil {
		writeDomainError(w, "invalid settings", err)
		return
	}

	account, err := h.accountUC.UpdateSettings(r.Context(), id, settings)
	if err != nil {
		writeDomainError(w, "failed to update settings", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// DefaultSettings returns the settings new accounts start with.
func (h *AccountHandler) DefaultSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.SettingsFromDomain(h.accountUC.DefaultSettings()))
}
