package swap

import (
	"errors"
	"fmt"
)

// SwapErrorType classifies swap failures
type SwapErrorType string

const (
	ErrorAssetNotSupported SwapErrorType = "ASSET_NOT_SUPPORTED"
	ErrorNotMeetMinSwap    SwapErrorType = "NOT_MEET_MIN_SWAP"
	ErrorExceedMaxSwap     SwapErrorType = "EXCEED_MAX_SWAP"
	ErrorFetchingQuote     SwapErrorType = "ERROR_FETCHING_QUOTE"
	ErrorInvalidRecipient  SwapErrorType = "INVALID_RECIPIENT"
	ErrorQuoteNotAvailable SwapErrorType = "QUOTE_NOT_AVAILABLE"
	ErrorUnknown           SwapErrorType = "UNKNOWN"
)

var (
	// ErrUnsupportedStep is returned when asked to execute a bookkeeping step
	ErrUnsupportedStep = errors.New("unsupported swap step")
	// ErrBuildFailed is returned when no deposit call could be built
	ErrBuildFailed = errors.New("failed to build deposit call")
	// ErrQuoteExpired is returned when acting on a quote past its deadline
	ErrQuoteExpired = errors.New("swap quote expired")
	// ErrInvalidProcess is returned for processes without an executable step
	ErrInvalidProcess = errors.New("invalid swap process")
)

// PreValidationMetadata carries the bounds a request was checked against
type PreValidationMetadata struct {
	MinSwap string `json:"min_swap"`
	MaxSwap string `json:"max_swap,omitempty"`
	Chain   string `json:"chain"`
	Symbol  string `json:"symbol"`
	// Decimals of the source asset, used to format the bounds for display
	Decimals int32 `json:"decimals"`
}

// SwapError is a classified swap failure
type SwapError struct {
	Type     SwapErrorType          `json:"type"`
	Message  string                 `json:"message"`
	Metadata *PreValidationMetadata `json:"metadata,omitempty"`
	Err      error                  `json:"-"`
}

// NewSwapError creates a swap error with the default message for its type
func NewSwapError(errType SwapErrorType, metadata *PreValidationMetadata) *SwapError {
	return &SwapError{
		Type:     errType,
		Message:  defaultMessage(errType, metadata),
		Metadata: metadata,
	}
}

func (e *SwapError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *SwapError) Unwrap() error {
	return e.Err
}

// wrap attaches the underlying cause
func (e *SwapError) wrap(err error) *SwapError {
	e.Err = err
	return e
}

// AsSwapError returns the swap error in err's chain, if any
func AsSwapError(err error) (*SwapError, bool) {
	var swapErr *SwapError
	if errors.As(err, &swapErr) {
		return swapErr, true
	}
	return nil, false
}

func defaultMessage(errType SwapErrorType, metadata *PreValidationMetadata) string {
	switch errType {
	case ErrorAssetNotSupported:
		return "This swap pair is not supported"
	case ErrorNotMeetMinSwap:
		if metadata != nil {
			return fmt.Sprintf("Amount too low. Increase your amount above %s %s and try again",
				FormatBaseUnits(metadata.MinSwap, metadata.Decimals), metadata.Symbol)
		}
		return "Amount too low. Increase your amount and try again"
	case ErrorExceedMaxSwap:
		if metadata != nil {
			return fmt.Sprintf("Amount too high. Lower your amount below %s %s and try again",
				FormatBaseUnits(metadata.MaxSwap, metadata.Decimals), metadata.Symbol)
		}
		return "Amount too high. Lower your amount and try again"
	case ErrorFetchingQuote, ErrorQuoteNotAvailable:
		return "No swap quote found. Adjust your amount or try again later."
	case ErrorInvalidRecipient:
		return "Recipient address does not match the destination network"
	default:
		chain := "network"
		if metadata != nil && metadata.Chain != "" {
			chain = metadata.Chain
		}
		return fmt.Sprintf("Undefined error. Check your Internet and %s connection or contact support", chain)
	}
}
