package app

import "errors"

// ErrNoActiveProcess and related errors describe registry and
// pipeline failures surfaced to callers.
var (
	ErrNoActiveProcess  = errors.New("no active process")
	ErrStepNotFound     = errors.New("step not found")
	ErrProcessNotFound  = errors.New("process not found")
	ErrVersionNotFound  = errors.New("version not found")
	ErrAlreadyMigrated  = errors.New("registry already present")
	ErrNothingToMigrate = errors.New("no legacy process file")
)
