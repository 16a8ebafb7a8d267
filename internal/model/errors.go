package model

import "errors"

var (
	// ErrExtractionTimeout means a UI element never appeared within the
	// bounded wait: the provider changed its markup or blocked the session.
	ErrExtractionTimeout = errors.New("extraction timeout")

	// ErrNoFlightsAvailable means the whole date window was scanned and
	// no candidate had a usable price.
	ErrNoFlightsAvailable = errors.New("no flights available in date window")

	// ErrInvalidPrice guards against non-positive or unparsable prices
	// reaching the repository or an evaluator.
	ErrInvalidPrice = errors.New("invalid price")

	// ErrPartialAssembly marks a run where one leg failed; the whole
	// assembly is aborted and nothing is persisted.
	ErrPartialAssembly = errors.New("partial assembly failure")
)
