package console

import "errors"

var (
	ErrRowBusy        = errors.New("another operation is already in progress for this row")
	ErrStale          = errors.New("response superseded by a newer fetch")
	ErrTransition     = errors.New("action not available for the current status")
	ErrNotFound       = errors.New("row not found")
	ErrNoConfirmation = errors.New("nothing to confirm")
	ErrDialogClosed   = errors.New("dialog is not open")
)

// refusal reports whether err is a local refusal whose text is meant for the admin.
func refusal(err error) bool {
	for _, e := range []error{ErrRowBusy, ErrTransition, ErrNotFound, ErrNoConfirmation, ErrDialogClosed} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
