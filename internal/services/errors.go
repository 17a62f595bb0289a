package services

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tokenworks/backend/internal/models"
)

// ErrInsufficientBalance is returned whenever applying a delta would drive a
// balance below zero. Administrators are not exempt.
var ErrInsufficientBalance = errors.New("insufficient balance")

// NotFoundError reports an unknown account, transaction or project.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// ForbiddenError reports an actor lacking the role or identity required for
// the attempted operation.
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string {
	return e.Reason
}

// InvalidStateError reports a transition attempted from a state that does not
// permit it. The transaction is left unchanged.
type InvalidStateError struct {
	TransactionID string
	Current       models.TransactionStatus
	Required      models.TransactionStatus
	Action        string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s transaction %s: status is %s, requires %s",
		e.Action, e.TransactionID, e.Current, e.Required)
}

// ValidationError reports malformed input (non-positive amount, missing
// reason, sender equal to receiver).
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// SendServiceError maps the token error taxonomy onto HTTP statuses and the
// shared JSON error envelope.
func SendServiceError(w http.ResponseWriter, err error) {
	var (
		notFound     *NotFoundError
		forbidden    *ForbiddenError
		invalidState *InvalidStateError
		validation   *ValidationError
	)
	switch {
	case errors.As(err, &notFound):
		SendErrorResponse(w, notFound.Error(), http.StatusNotFound, nil)
	case errors.As(err, &forbidden):
		SendErrorResponse(w, forbidden.Error(), http.StatusForbidden, nil)
	case errors.As(err, &invalidState):
		SendErrorResponse(w, invalidState.Error(), http.StatusConflict, nil)
	case errors.As(err, &validation):
		SendErrorResponse(w, validation.Error(), http.StatusBadRequest, nil)
	case errors.Is(err, ErrInsufficientBalance):
		SendErrorResponse(w, err.Error(), http.StatusUnprocessableEntity, nil)
	default:
		SendErrorResponse(w, "Internal server error", http.StatusInternalServerError, nil)
	}
}
