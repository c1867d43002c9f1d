package bot

import "fmt"

// InvalidInputError reports an unsupported model or an empty question. Raised
// before any network call; never retried.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return "invalid input: " + e.Reason
}

// ConfigurationError reports a missing provider credential. Raised before any
// network call.
type ConfigurationError struct {
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration: %s: %v", e.Reason, e.Err)
	}
	return "configuration: " + e.Reason
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// ExhaustedRetriesError reports that every attempt failed with a retryable
// condition. Last carries the final underlying provider error.
type ExhaustedRetriesError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedRetriesError) Error() string {
	return fmt.Sprintf("failed to get response after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedRetriesError) Unwrap() error {
	return e.Last
}

// FatalProviderError reports a non-retryable provider failure, propagated
// immediately without consuming remaining retries.
type FatalProviderError struct {
	Err error
}

func (e *FatalProviderError) Error() string {
	return fmt.Sprintf("provider failure: %v", e.Err)
}

func (e *FatalProviderError) Unwrap() error {
	return e.Err
}
