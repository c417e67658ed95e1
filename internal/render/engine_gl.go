//go:build !nogl

package render

import (
	"fmt"

	"github.com/freevo/kaa-display/internal/x11"
)

// GLSupported reports whether the GL backend was compiled in.
const GLSupported = true

// glVisual picks the best GLX visual and gives it a fresh colormap.
func glVisual(srv x11.Server) (outputVisual, error) {
	visual, depth, ok := srv.GLXVisual()
	if !ok {
		return outputVisual{}, fmt.Errorf("%w: no double-buffered RGBA GLX visual", ErrEngineUnavailable)
	}
	cmap, err := srv.CreateColormap(visual)
	if err != nil {
		return outputVisual{}, fmt.Errorf("failed to create colormap: %w", err)
	}
	return outputVisual{Visual: visual, Colormap: cmap, Depth: depth, ownsColormap: true}, nil
}
