package server

import "github.com/pkg/errors"

// ErrBind marks a failure to bind the listen address. The daemon exits
// with a distinct status code for it.
var ErrBind = errors.New("bind failed")
