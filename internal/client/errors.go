package client

import "github.com/pkg/errors"

var ErrUnexpectedTag = errors.New("unexpected packet tag")
var ErrServer = errors.New("server reported error")
