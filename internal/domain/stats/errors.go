package stats

import "errors"

var (
	ErrEmployeeNotFound = errors.New("employee not found")
	ErrRateUnavailable  = errors.New("exchange rate unavailable")
)
