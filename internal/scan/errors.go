package scan

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel kinds for errors.Is. An *AnalysisError always unwraps to exactly one of them.
var (
	ErrEmptyResponse       = errors.New("empty analysis response")
	ErrStopped             = errors.New("analysis stopped")
	ErrBlocked             = errors.New("analysis blocked")
	ErrUnexpectedFormat    = errors.New("unexpected analysis format")
	ErrAnalysisTimeout     = errors.New("analysis timed out")
	ErrAnalysisUnavailable = errors.New("analysis unavailable")
	ErrAnalysisCanceled    = errors.New("analysis canceled")

	// ErrSuperseded is returned for a scan that was replaced by a newer scan
	// in the same session before it finished.
	ErrSuperseded = errors.New("scan superseded")
)

// AnalysisError is a recoverable failure of the external product analysis.
// Cause is safe to show to the user.
type AnalysisError struct {
	Kind  error
	Cause string
	Err   error
}

func (e *AnalysisError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Cause, e.Err)
	}
	return e.Cause
}

func (e *AnalysisError) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func newAnalysisError(kind error, cause string, err error) *AnalysisError {
	return &AnalysisError{Kind: kind, Cause: cause, Err: err}
}

// abandonedError classifies a caller that stopped waiting for the analysis.
func abandonedError(err error) *AnalysisError {
	if errors.Is(err, context.DeadlineExceeded) {
		return newAnalysisError(ErrAnalysisTimeout, "analysis did not finish in time", err)
	}
	return newAnalysisError(ErrAnalysisCanceled, "the scan was canceled", err)
}

// emptyResponseError classifies a response that carried no text.
func emptyResponseError(resp *AnalysisResponse) *AnalysisError {
	switch {
	case resp.FinishReason != "" && resp.FinishReason != FinishReasonStop:
		return newAnalysisError(ErrStopped,
			fmt.Sprintf("analysis was stopped unexpectedly, reason: %s", resp.FinishReason), nil)
	case resp.BlockReason != "":
		return newAnalysisError(ErrBlocked,
			fmt.Sprintf("request was blocked for safety reasons, reason: %s", resp.BlockReason), nil)
	default:
		return newAnalysisError(ErrEmptyResponse,
			"the product might be unidentifiable or a network error occurred", nil)
	}
}
