// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrDuplicateAgent indicates an agent name was registered twice on one bus.
// Registration is one-shot per name for the process lifetime.
var ErrDuplicateAgent = errors.New("agent already registered")
