package ledger

import (
	"errors"
	"fmt"
)

// Error kinds. Every error the ledger core returns wraps exactly one of these.
var (
	ErrValidation        = errors.New("validation failed")
	ErrReferential       = errors.New("reference not found")
	ErrBuiltinProtection = errors.New("builtin protected")
	ErrBackupFormat      = errors.New("invalid backup")
	ErrStorage           = errors.New("storage failure")
)

var (
	ErrInvalidAmount        = fmt.Errorf("%w: amount must be greater than zero", ErrValidation)
	ErrInvalidType          = fmt.Errorf("%w: type must be income, expense or transfer", ErrValidation)
	ErrMissingAccount       = fmt.Errorf("%w: account is required", ErrValidation)
	ErrMissingToAccount     = fmt.Errorf("%w: transfer requires a destination account", ErrValidation)
	ErrSelfTransfer         = fmt.Errorf("%w: cannot transfer to the same account", ErrValidation)
	ErrUnexpectedToAccount  = fmt.Errorf("%w: only transfers have a destination account", ErrValidation)
	ErrMissingCategory      = fmt.Errorf("%w: category is required", ErrValidation)
	ErrCategoryTypeMismatch = fmt.Errorf("%w: category type does not match transaction type", ErrValidation)
	ErrInvalidAccountType   = fmt.Errorf("%w: invalid account type", ErrValidation)
	ErrInvalidCurrency      = fmt.Errorf("%w: invalid or unsupported currency code", ErrValidation)
	ErrEmptyName            = fmt.Errorf("%w: name is required", ErrValidation)
	ErrMalformedLine        = fmt.Errorf("%w: malformed import line", ErrValidation)
	ErrInvalidDimension     = fmt.Errorf("%w: dimension must be day, week, month, year or all", ErrValidation)

	ErrAccountNotFound     = fmt.Errorf("%w: account not found", ErrReferential)
	ErrCategoryNotFound    = fmt.Errorf("%w: category not found", ErrReferential)
	ErrTransactionNotFound = fmt.Errorf("%w: transaction not found", ErrReferential)
	ErrAccountInUse        = fmt.Errorf("%w: account is referenced by transactions", ErrReferential)

	ErrBuiltinCategory = fmt.Errorf("%w: builtin categories cannot be deleted", ErrBuiltinProtection)

	ErrUnsupportedVersion = fmt.Errorf("%w: unsupported version", ErrBackupFormat)
	ErrMissingCollection  = fmt.Errorf("%w: missing collection", ErrBackupFormat)
)

// Backup errors may also wrap a validation error from a bad record, so
// ErrBackupFormat is checked first.
var kinds = []error{ErrBackupFormat, ErrValidation, ErrReferential, ErrBuiltinProtection, ErrStorage}

// KindOf returns the kind sentinel err belongs to, or nil for errors that
// did not come from the ledger core.
func KindOf(err error) error {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// StorageError wraps a persistence failure. It matches both ErrStorage and
// the underlying driver error.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() []error {
	return []error{ErrStorage, e.Err}
}

// WrapStorage classifies err as a storage failure unless it already carries
// a ledger kind.
func WrapStorage(op string, err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != nil {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
