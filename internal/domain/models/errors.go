package models

import "errors"

// ErrConfiguration marks construction-time invariant violations. These are
// the only errors that abort startup; everything that happens after the
// pipeline is running is logged and absorbed locally.
var ErrConfiguration = errors.New("configuration error")
