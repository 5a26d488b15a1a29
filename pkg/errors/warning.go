package errors

import "fmt"

// WarningCode identifies a non-fatal data-quality condition.
type WarningCode string

// Warning codes. Warnings are reported and processing continues; they are
// never returned through error paths.
const (
	WarnSitesDropped      WarningCode = "SITES_DROPPED"
	WarnSiteCountVariance WarningCode = "SITE_COUNT_VARIANCE"
	WarnEmptyNetwork      WarningCode = "EMPTY_NETWORK"
)

// Warning is a non-fatal data-quality report carried alongside stage results.
type Warning struct {
	Code    WarningCode // Machine-readable warning code
	Message string      // Human-readable message
}

// Warningf creates a Warning with a formatted message.
func Warningf(code WarningCode, format string, args ...any) Warning {
	return Warning{Code: code, Message: fmt.Sprintf(format, args...)}
}

// String returns the warning in "CODE: message" form.
func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Code, w.Message)
}
