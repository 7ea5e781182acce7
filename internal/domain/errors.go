package domain

import "errors"

var ErrUnknownOutcome = errors.New("unknown outcome token")
