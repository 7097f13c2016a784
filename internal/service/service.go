package service

import (
	"context"
	"errors"
	"strings"

	"github.com/andy/invoicer/internal/domain"
)

// TxRunner runs fn in a single database transaction. *db.DB implements it.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserMessage turns an error returned by a service into a sentence fit for
// the CLI or TUI.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var verrs domain.ValidationErrors
	if errors.As(err, &verrs) {
		return strings.TrimPrefix(verrs.Error(), domain.ErrValidationFailed.Error()+": ")
	}

	switch {
	case errors.Is(err, domain.ErrValidationFailed):
		return detail(err, domain.ErrValidationFailed)
	case errors.Is(err, domain.ErrInvalidState):
		return detail(err, domain.ErrInvalidState)
	case errors.Is(err, domain.ErrNotFound):
		return detail(err, domain.ErrNotFound) + " not found"
	case errors.Is(err, domain.ErrStorage):
		return "storage failure: " + detail(err, domain.ErrStorage)
	}
	return err.Error()
}

// detail returns the text following "<kind>: " in err's message.
func detail(err, kind error) string {
	msg := err.Error()
	prefix := kind.Error() + ": "
	if i := strings.Index(msg, prefix); i >= 0 {
		return msg[i+len(prefix):]
	}
	return msg
}
