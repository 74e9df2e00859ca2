package hostfuncs

import "errors"

var errMemoryRead = errors.New("hostfuncs: failed to read guest memory")
