package engine

import "errors"

var (
	ErrEmptyLayout         = errors.New("layout is empty")
	ErrNonRectangular      = errors.New("layout rows differ in length")
	ErrNoActor             = errors.New("layout has no actor")
	ErrMultipleActors      = errors.New("layout has more than one actor")
	ErrInvalidCell         = errors.New("invalid cell character")
	ErrBrokenPair          = errors.New("pair halves are not adjacent")
	ErrInvalidInstruction  = errors.New("invalid instruction character")
	ErrMissingInstructions = errors.New("puzzle has no instruction section")
	ErrUnknownDirection    = errors.New("unknown direction")
	ErrInvalidLaneStatus   = errors.New("invalid lane status")
)
