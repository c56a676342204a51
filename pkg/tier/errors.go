package tier

import "errors"

var (
	ErrInvalidTier               = errors.New("invalid tier")
	ErrInvalidInterval           = errors.New("invalid billing interval")
	ErrMissingPriceConfiguration = errors.New("missing price configuration")
	ErrDuplicatePrice            = errors.New("price id configured for more than one tier")
	ErrFailedToLoadCatalog       = errors.New("failed to load price catalog")
)
