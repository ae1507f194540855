package pkg

import "errors"

var (
	// Request errors 📝
	ErrNoOutput         = errors.New("❌ no output path")
	ErrUnknownSubstrate = errors.New("❌ unknown worker substrate")

	// Input errors 🖼️
	ErrFrameDecode = errors.New("❌ frame could not be decoded")
)
