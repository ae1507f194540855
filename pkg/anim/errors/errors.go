// Package errors holds the sentinel errors shared by the encoder, the wire
// protocol and the worker substrates. Compare with errors.Is.
package errors

import "errors"

var (
	// Session errors 🎬
	ErrAlreadyRunning    = errors.New("❌ render already running")
	ErrNotRunning        = errors.New("❌ no render in progress")
	ErrMissingDimensions = errors.New("❌ width and height must be set prior to rendering")
	ErrNoFrames          = errors.New("❌ no frames to render")
	ErrAborted           = errors.New("❌ render aborted")

	// Frame errors 🖼️
	ErrInvalidFrameSource = errors.New("❌ invalid frame source")
	ErrInvalidTaskSource  = errors.New("❌ frame has no pixel data")
	ErrPixelBufferSize    = errors.New("❌ pixel buffer does not match frame dimensions")

	// Invariant violations 💥
	ErrPoolExhausted        = errors.New("❌ no free workers")
	ErrAssemblyPrecondition = errors.New("❌ result slots incomplete")

	// Worker errors 👷
	ErrWorkerFailed     = errors.New("❌ worker failed to encode frame")
	ErrWorkerTerminated = errors.New("❌ worker terminated")

	// Event errors 📣
	ErrTooManyListeners = errors.New("❌ listener limit reached")

	// Wire errors 📦
	ErrInvalidMagic     = errors.New("❌ invalid message magic")
	ErrChecksumMismatch = errors.New("❌ checksum mismatch")
	ErrUnknownOperation = errors.New("❌ unknown transfer operation")
)
