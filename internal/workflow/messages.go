package workflow

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/unalkalkan/ReelPilot/internal/apierror"
)

const (
	NoticeCancelled = "Operation cancelled by user."

	msgMissingCredential = "The generation API key is not configured on the server. Set the API key environment variable and restart the service."
	msgClientInit        = "Failed to initialize the generation client. Check that the API key is configured correctly."
	msgInvalidCredential = "The generation API key is invalid, expired or lacks permission for this API. Check the key and your project settings."
	msgSelectTopic       = "Please select a topic to continue."
	msgNoTopics          = "No topic could be selected automatically. Pick a topic or enter your own to continue."
)

var (
	// ErrBusy is returned by intents that require an idle session
	ErrBusy = errors.New("an operation is already in progress")

	// ErrNotAllowed is returned when an intent does not apply to the current stage
	ErrNotAllowed = errors.New("action not allowed in the current stage")

	// ErrNoScript is returned by export intents before a script exists
	ErrNoScript = errors.New("no script available")

	// ErrNoExport is returned when copying before an export was built
	ErrNoExport = errors.New("no export prompt available")
)

// stageError carries a complete user-facing message for the Error stage
type stageError struct {
	msg string
}

func (e *stageError) Error() string {
	return e.msg
}

func newStageError(format string, args ...any) error {
	return &stageError{msg: fmt.Sprintf(format, args...)}
}

// DisplayMessage turns a stage failure into the text shown to the user.
// failure names the step that failed and prefixes generic errors.
func DisplayMessage(failure string, err error) string {
	if err == nil {
		return failure
	}

	var se *stageError
	if errors.As(err, &se) {
		return se.msg
	}
	if apierror.IsCancelled(err) {
		return NoticeCancelled
	}
	if cfgErr, ok := apierror.AsConfig(err); ok {
		switch cfgErr.Kind {
		case apierror.MissingCredential:
			return msgMissingCredential
		case apierror.InvalidCredential:
			return msgInvalidCredential
		default:
			return msgClientInit
		}
	}
	if apierror.IsQuotaExceeded(err) {
		return fmt.Sprintf("%s: API quota exceeded (429). Check your plan and quota; you may need to wait for the quota to reset or upgrade your plan.", failure)
	}
	if code, ok := apierror.StatusCode(err); ok && code >= http.StatusInternalServerError {
		return fmt.Sprintf("%s: the generation service is temporarily unavailable (%d) and still failed after several retries. Please try again later.", failure, code)
	}
	if errors.Is(err, apierror.ErrRetriesExhausted) {
		return fmt.Sprintf("%s: the request still failed after several retries. Please try again later.", failure)
	}
	if failure == "" {
		return err.Error()
	}
	return fmt.Sprintf("%s: %v", failure, err)
}

// isCredentialFailure reports whether err is a configuration problem that
// a session reset cannot clear
func isCredentialFailure(err error) bool {
	_, ok := apierror.AsConfig(err)
	return ok
}
