package unused

import (
	"errors"
	"fmt"
)

// ErrMalformedDeclaration matches every *MalformedDeclarationError.
var ErrMalformedDeclaration = errors.New("malformed declaration")

// MalformedDeclarationError reports a @mixin, @function or @include whose
// params contain no identifier. The source is invalid and the run must stop.
type MalformedDeclarationError struct {
	Keyword string
	Params  string
	Line    int
}

func (e *MalformedDeclarationError) Error() string {
	return fmt.Sprintf("line %d: found @%s with no identifier (params %q)", e.Line, e.Keyword, e.Params)
}

func (e *MalformedDeclarationError) Is(target error) bool {
	return target == ErrMalformedDeclaration
}
