package cache

import "github.com/pkg/errors"

// ErrNotFound is returned when a cache key is not found.
var ErrNotFound = errors.New("cache: not found")
