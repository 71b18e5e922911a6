// Package vision describes camera snapshots through Gemini so the
// companion can react to what the user is showing it.
package vision

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/nyralabs/nira/internal/core"
	"github.com/nyralabs/nira/internal/llm"
)

const visionModel = "gemini-1.5-flash"

// Anything shorter than this cannot be a real image payload.
const minImageChars = 100

var dataURIPrefix = regexp.MustCompile(`^data:image/\w+;base64,`)

const visionPrompt = `You are the eyes of an AI friend named NIRA.
Look at this image from your friend's camera.
Describe what you see in a natural, friendly, and observant way.
Focus on:
- The user's expression/mood.
- Interesting objects in the room.
- Any activities or specific things they are showing you.
Keep it to 2-3 sentences. Talk as if you are seeing it RIGHT NOW.`

// Service analyzes base64 camera snapshots.
type Service struct {
	client *llm.GeminiClient
}

// NewService creates a vision service on top of the Gemini client.
func NewService(client *llm.GeminiClient) *Service {
	return &Service{client: client}
}

// IsConfigured reports whether the underlying client has credentials.
func (s *Service) IsConfigured() bool {
	return s.client != nil && s.client.IsConfigured()
}

// AnalyzeImage returns a short scene description for a base64 image.
// A data-URI prefix is stripped if the client sent one; mimeType is
// optional and defaults to JPEG.
func (s *Service) AnalyzeImage(ctx context.Context, base64Image, mimeType string) (string, error) {
	if strings.TrimSpace(base64Image) == "" {
		return "", core.ErrImageRequired
	}

	clean := dataURIPrefix.ReplaceAllString(strings.TrimSpace(base64Image), "")
	if len(clean) < minImageChars {
		return "", core.ErrImageTooSmall
	}

	description, err := s.client.GenerateParts(ctx, visionModel,
		llm.TextPart(visionPrompt),
		llm.ImagePart(clean, mimeType),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrVisionFailed, err)
	}

	description = strings.TrimSpace(description)
	if description == "" {
		return "", core.ErrVisionFailed
	}
	return description, nil
}
