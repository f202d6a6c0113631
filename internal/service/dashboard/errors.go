package dashboard

import "errors"

var (
	ErrUnknownView = errors.New("unknown metrics view")
)
