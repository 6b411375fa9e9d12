package reminder

import "errors"

var ErrInvalidConfig = errors.New("invalid reminder config")
