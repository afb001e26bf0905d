package filesystem

import "errors"

var ErrDocumentNotObject = errors.New("document is not an object")
var ErrUnsupportedFormat = errors.New("unsupported document format")
