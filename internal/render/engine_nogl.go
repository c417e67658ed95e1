//go:build nogl

package render

import (
	"fmt"

	"github.com/freevo/kaa-display/internal/x11"
)

// GLSupported reports whether the GL backend was compiled in.
const GLSupported = false

func glVisual(x11.Server) (outputVisual, error) {
	return outputVisual{}, fmt.Errorf("%w: built without GL support", ErrEngineUnavailable)
}
