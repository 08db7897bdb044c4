package scheduler

import "errors"

// ErrJobNotFound — job с данным id не зарегистрирован в scheduler.
var ErrJobNotFound = errors.New("job not found")
