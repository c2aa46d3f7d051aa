package stats

import "errors"

var (
	errMinimumEffect    = errors.New("stats: minimum_effect must be > 0")
	errKTooSmall        = errors.New("stats: k must be >= 2")
	errProbabilityRange = errors.New("stats: probability must be in [0, 1]")
)
