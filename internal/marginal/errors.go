package marginal

import "errors"

var (
	// ErrProbOutOfRange reports an isotope abundance outside (0, 1].
	ErrProbOutOfRange = errors.New("marginal: isotope probability outside (0, 1]")

	// ErrAtomCountTooLarge reports an atom count at or beyond the
	// factorial-table bound MaxAtomCount.
	ErrAtomCountTooLarge = errors.New("marginal: atom count exceeds factorial table size")

	// ErrNoIsotopes reports an empty isotope list.
	ErrNoIsotopes = errors.New("marginal: element needs at least one isotope")

	// ErrLengthMismatch reports mass and probability arrays of different lengths.
	ErrLengthMismatch = errors.New("marginal: masses and probabilities differ in length")
)
