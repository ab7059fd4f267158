package client

import "context"

// Request is a single image question for a vision model
type Request struct {
	Model    string
	System   string
	Prompt   string
	ImageB64 string
}

// VisionClient returns the raw text answer of a vision model
type VisionClient interface {
	Transcribe(ctx context.Context, req Request) (string, error)
}
