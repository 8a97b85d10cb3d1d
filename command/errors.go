package command

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-mining/core"
)

func commandDependencyError(message string) error {
	return goerrors.New(message, goerrors.CategoryInternal).
		WithCode(http.StatusInternalServerError).
		WithTextCode(core.PoolErrorInternal)
}

func commandValidationError(field string, message string) error {
	return goerrors.NewValidation("command: validation failed", goerrors.FieldError{
		Field:   field,
		Message: message,
	}).
		WithCode(http.StatusBadRequest).
		WithTextCode(core.PoolErrorBadInput).
		WithSeverity(goerrors.SeverityError)
}

func commandNotReadyError(message string) error {
	return goerrors.New(message, goerrors.CategoryOperation).
		WithCode(http.StatusServiceUnavailable).
		WithTextCode(core.PoolErrorNotReady).
		WithSeverity(goerrors.SeverityWarning)
}
