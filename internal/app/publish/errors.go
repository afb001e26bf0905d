package publish

import "errors"

var ErrSchemaRequired = errors.New("schema document is required")
var ErrInvalidSchema = errors.New("invalid schema document")
