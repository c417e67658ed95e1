// Package render pushes decoded images onto X windows and binds scene
// engines to newly created output windows.
package render

import (
	"image"
	"log/slog"
)

// ImageDecoder turns a caller's image object into pixels.
type ImageDecoder interface {
	Decode(src any) (image.Image, error)
}

// EngineResolver turns a caller's engine object into a SceneEngine.
type EngineResolver interface {
	Engine(src any) (SceneEngine, error)
}

// Collaborators are the optional capabilities a Bridge renders through.
// They are resolved once at startup; a nil field disables the operations
// that need it.
type Collaborators struct {
	Decoder ImageDecoder
	Engines EngineResolver
}

// Bridge renders onto windows through its collaborators.
type Bridge struct {
	collab Collaborators
	logger *slog.Logger
}

// NewBridge returns a Bridge using c.
func NewBridge(c Collaborators, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	if c.Decoder == nil {
		logger.Debug("image decoder not configured, image blits disabled")
	}
	if c.Engines == nil {
		logger.Debug("scene engine resolver not configured, engine binding disabled")
	}
	return &Bridge{collab: c, logger: logger}
}

// CanBlit reports whether BlitImage is available.
func (b *Bridge) CanBlit() bool {
	return b.collab.Decoder != nil
}

// CanBindEngines reports whether BindSceneEngine is available.
func (b *Bridge) CanBindEngines() bool {
	return b.collab.Engines != nil
}
