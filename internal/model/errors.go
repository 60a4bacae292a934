package model

import "errors"

// ErrInsufficientData is the only error fatal to an analysis run: zero
// usable observations in the lookback window. Partial history merely
// marks individual indicators unavailable.
var ErrInsufficientData = errors.New("insufficient data: no usable observations")
