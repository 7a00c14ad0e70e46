// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "errors"

// Fatal pipeline errors. Callers distinguish them with errors.Is.
var (
	// ErrEmptyContent means the input was empty or unusable after
	// preprocessing. Nothing was dispatched.
	ErrEmptyContent = errors.New("content is empty after preprocessing")

	// ErrNoContentGenerated means every chunk exhausted its retries without
	// producing usable data.
	ErrNoContentGenerated = errors.New("no content generated")

	// ErrNoValidItems means chunks returned data but every item failed
	// validation.
	ErrNoValidItems = errors.New("no valid items generated")

	// ErrInvalidContentType means the requested content type is unknown.
	ErrInvalidContentType = errors.New("invalid content type")
)
