package core

import (
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	PoolErrorBadInput                 = "POOL_BAD_INPUT"
	PoolErrorSlotUnknown              = "POOL_SLOT_UNKNOWN"
	PoolErrorCapabilityMismatch       = "POOL_CAPABILITY_MISMATCH"
	PoolErrorPolicyNotFound           = "POOL_POLICY_NOT_FOUND"
	PoolErrorReadinessAlreadyResolved = "POOL_READINESS_ALREADY_RESOLVED"
	PoolErrorSettingMissing           = "POOL_SETTING_MISSING"
	PoolErrorSettingInvalid           = "POOL_SETTING_INVALID"
	PoolErrorNotReady                 = "POOL_NOT_READY"
	PoolErrorInternal                 = "POOL_INTERNAL_ERROR"
)

// MapError normalizes any error into a go-errors envelope with a pool text code.
func MapError(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensurePoolErrorEnvelope(richErr)
	}
	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensurePoolErrorEnvelope(mapped)
}

func NewPoolError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensurePoolErrorEnvelope(
		goerrors.New(message, category).WithTextCode(textCode),
	)
}

func ensurePoolErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultPoolTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultPoolTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return PoolErrorBadInput
	case goerrors.CategoryNotFound:
		return PoolErrorPolicyNotFound
	default:
		return PoolErrorInternal
	}
}

func slotUnknownError(raw string) error {
	return NewPoolError(
		fmt.Sprintf("core: unknown registry slot %q", strings.TrimSpace(raw)),
		goerrors.CategoryBadInput,
		PoolErrorSlotUnknown,
	)
}

func capabilityMismatchError(slot Slot, instance any) error {
	return NewPoolError(
		fmt.Sprintf("core: %T does not satisfy the %s contract", instance, slot),
		goerrors.CategoryBadInput,
		PoolErrorCapabilityMismatch,
	).WithMetadata(map[string]any{"slot": slot.String()})
}

func policyNotFoundError(slot Slot, name string) error {
	return NewPoolError(
		fmt.Sprintf("core: no %s policy registered as %q", slot, name),
		goerrors.CategoryNotFound,
		PoolErrorPolicyNotFound,
	).WithMetadata(map[string]any{"slot": slot.String(), "policy": name})
}

func alreadyResolvedError() error {
	return NewPoolError(
		"core: readiness signal already resolved",
		goerrors.CategoryInternal,
		PoolErrorReadinessAlreadyResolved,
	)
}
