package dbcontext

import "errors"

var ErrOpenerRequired = errors.New("store opener is required")
var ErrInvalidCollectionName = errors.New("invalid collection name")
