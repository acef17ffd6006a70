package source

import (
	"errors"
	"fmt"
	"unicode"
)

// maxPathLength bounds paths accepted from the command line.
const maxPathLength = 4096

var (
	ErrEmptyPath        = errors.New("path cannot be empty")
	ErrPathTooLong      = errors.New("path too long")
	ErrInvalidCharacter = errors.New("invalid character in path")
)

// ValidatePath rejects paths that are empty, overlong or carry NUL or other
// control characters.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	if len(path) > maxPathLength {
		return ErrPathTooLong
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character %U", ErrInvalidCharacter, r)
		}
	}
	return nil
}
