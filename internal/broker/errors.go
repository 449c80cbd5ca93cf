package broker

import "errors"

var (
	ErrUnavailable = errors.New("market data unavailable")
	ErrNotFound    = errors.New("no data for this symbol")
	ErrRateLimited = errors.New("rate limited by broker API")
	ErrAuthFailed  = errors.New("authentication failed")
)
