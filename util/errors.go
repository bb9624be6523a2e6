package util

import (
	"errors"
	"fmt"
)

var (
	ErrNetwork           = errors.New("network failure")
	ErrIntegrity         = errors.New("integrity failure")
	ErrVersionNotFound   = errors.New("version not found")
	ErrPartialLibrary    = errors.New("library could not be resolved")
	ErrLaunchSpawn       = errors.New("failed to start game process")
	ErrInheritanceCycle  = errors.New("version inheritance cycle")
	ErrIncompleteVersion = errors.New("version is missing required fields")
)

// GameExitError is returned when the game process ran but did not exit
// cleanly.
type GameExitError struct {
	Code int
	Err  error
}

func (e *GameExitError) Error() string {
	return fmt.Sprintf("game exited with status %d", e.Code)
}

func (e *GameExitError) Unwrap() error {
	return e.Err
}
