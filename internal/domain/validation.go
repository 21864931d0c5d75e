package domain

import (
	"github.com/go-playground/validator/v10"
)

// validate is the package-level validator instance used for struct validation.
var validate = validator.New(validator.WithRequiredStructEnabled())

// cloneStrings creates a copy of a string slice to prevent aliasing.
// Returns nil for nil input to maintain consistency.
func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

// cloneImages deep-copies image byte buffers so a submitted request cannot
// be mutated by the caller after the pipeline has accepted it.
func cloneImages(imgs [][]byte) [][]byte {
	if imgs == nil {
		return nil
	}
	out := make([][]byte, len(imgs))
	for i, img := range imgs {
		buf := make([]byte, len(img))
		copy(buf, img)
		out[i] = buf
	}
	return out
}
