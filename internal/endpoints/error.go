package endpoints

import (
	"errors"

	"instance-metrics-app/internal/domain"
)

const (
	API_SUCCESS = iota + 505000 // 505000
	API_FAILURE                 // 505001 - Generic API failure
)

const (
	INSTANCE_NOT_FOUND    = iota + 101 // 101 - Identifier matches no instance
	INVALID_PARAMETERS                 // 102 - Malformed start/end parameter
	INVALID_TIME_RANGE                 // 103 - Start is not before end
	INVALID_INTERVAL                   // 104 - Unknown interval key
	INVALID_REQUEST_BODY               // 105 - Error parsing request body
	PROVIDER_RATE_LIMITED              // 106 - Provider throttled the query past retry budget
	PROVIDER_UNAVAILABLE               // 107 - Provider failed with a non-retryable error
	REQUEST_CANCELLED                  // 108 - Request was cancelled by client or server timeout
)

var (
	ErrInvalidParameters   = errors.New("start and end must be unix-second integers")
	ErrInvalidTimeRange    = errors.New("start timestamp must be before end timestamp")
	ErrInvalidInterval     = errors.New("interval must be one of 1m, 5m, 15m, 1h")
	ErrInvalidRequestBody  = errors.New("invalid request body format or missing fields")
	ErrProviderRateLimited = errors.New("telemetry provider is throttling requests, try again later")
	ErrProviderUnavailable = errors.New("telemetry provider request failed")
	ErrRequestCancelled    = errors.New("request cancelled by client or server timeout")
)

func GetErrorCode(err error) int {
	if err == nil {
		return API_SUCCESS
	}

	switch {
	case errors.Is(err, domain.ErrInstanceNotFound):
		return INSTANCE_NOT_FOUND
	case errors.Is(err, ErrInvalidParameters):
		return INVALID_PARAMETERS
	case errors.Is(err, ErrInvalidTimeRange):
		return INVALID_TIME_RANGE
	case errors.Is(err, ErrInvalidInterval):
		return INVALID_INTERVAL
	case errors.Is(err, ErrInvalidRequestBody):
		return INVALID_REQUEST_BODY
	case errors.Is(err, ErrProviderRateLimited):
		return PROVIDER_RATE_LIMITED
	case errors.Is(err, ErrProviderUnavailable):
		return PROVIDER_UNAVAILABLE
	case errors.Is(err, ErrRequestCancelled):
		return REQUEST_CANCELLED
	default:
		return API_FAILURE
	}
}
