package browser

import (
	"fmt"

	"github.com/mathursrus/LinkedIn-Network/internal/engine"
)

// CrashError is returned by every operation once the browser has died.
// errors.Is(err, engine.ErrBrowserCrash) holds for it.
type CrashError struct {
	Op  string
	Err error
}

func (e *CrashError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("browser crashed during %s", e.Op)
	}
	return fmt.Sprintf("browser crashed during %s: %v", e.Op, e.Err)
}

// Unwrap returns the failure that revealed the crash
func (e *CrashError) Unwrap() error {
	return e.Err
}

// Is reports whether target is engine.ErrBrowserCrash
func (e *CrashError) Is(target error) bool {
	return target == engine.ErrBrowserCrash
}

// ErrorCode implements the code lookup used by engine.CodeOf
func (e *CrashError) ErrorCode() engine.ErrorCode {
	return engine.ErrCodeBrowserCrash
}
