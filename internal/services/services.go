package services

import (
	"context"

	"github.com/desertthunder/rivora/internal/models"
)

// Generator turns a prompt (and optional reference file) into a generated artifact.
type Generator interface {
	// Generate sends exactly one request to the generation service and classifies its response.
	Generate(ctx context.Context, req GenerationRequest) (*GenerationResult, error)
}

// GenerationRequest is the payload of one generation call.
type GenerationRequest struct {
	Prompt string
	Type   models.MediaType
	File   *models.Attachment
}
