package ecs

import "errors"

// ErrNilLogger is returned by NewWorld when constructed without a logger.
var ErrNilLogger = errors.New("ecs: world logger must not be nil")
