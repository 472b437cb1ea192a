package seed

import "errors"

// Error constants.
var (
	ErrLoadSeed  = errors.New("load seed snapshot")
	ErrEmptyPath = errors.New("seed path is empty")
)
