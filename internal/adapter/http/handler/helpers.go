package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/iho/bankbook/internal/adapter/http/dto"
	"github.com/iho/bankbook/internal/domain"
	"github.com/iho/bankbook/internal/usecase"
)

// maxBodyBytes bounds request bodies; every payload here is a few fields.
const maxBodyBytes = 1 << 16

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// writeDomainError writes err with the status mapDomainError picks.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	writeError(w, mapDomainError(err), message, err.Error())
}

// writeTransactionError reports a failed transaction. Refusals carry the
// admission result and the account as it stands afterwards.
func writeTransactionError(w http.ResponseWriter, outcome *usecase.TransactionOutcome, err error) {
	var rejection *domain.RejectionError
	if !errors.As(err, &rejection) {
		writeDomainError(w, "transaction failed", err)
		return
	}

	resp := dto.RejectionResponse{
		Error:   "transaction rejected",
		Message: err.Error(),
		Result:  rejection.Result.String(),
	}
	if outcome != nil && outcome.Account != nil {
		resp.Account = dto.AccountFromDomain(outcome.Account)
	}

	writeJSON(w, mapDomainError(err), resp)
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidAccountID):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidNickname):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidSettings):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidTransaction):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrTransactionRejected):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// parseAccountID reads and validates the {id} URL parameter.
func parseAccountID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", domain.ErrInvalidAccountID, raw)
	}
	if err := domain.ValidateAccountID(id); err != nil {
		return 0, err
	}
	return id, nil
}

// decodeBody decodes a JSON body into dst. An empty body is accepted when
// optional is true.
func decodeBody(r *http.Request, dst any, optional bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if optional && errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
