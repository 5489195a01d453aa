package audible

import (
	"fmt"

	"github.com/listenupapp/listenup-metadata/internal/metadata"
)

// Sentinel errors for Audible operations.
var (
	ErrNotFound    = metadata.ErrNotFound
	ErrRateLimited = metadata.ErrRateLimited
	ErrBadRequest  = metadata.ErrBadRequest
	ErrServer      = metadata.ErrServer
	ErrInvalidASIN = fmt.Errorf("%w: not an ASIN", metadata.ErrInvalidID)
)

func wrapError(op, asin string, err error) error {
	return metadata.WrapError(Name, op, asin, err)
}
