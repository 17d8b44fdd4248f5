package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// ImageOptions controls a single image request.
type ImageOptions struct {
	Count int
}

// ImageClient renders one scene image for a prompt.
type ImageClient interface {
	GenerateImage(ctx context.Context, prompt string, opts ImageOptions) ([]byte, error)
}

// OpenAIImages renders images with the OpenAI image API.
type OpenAIImages struct {
	client *openai.Client
	model  string
}

func NewOpenAIImages(apiKey, baseURL, model string, timeout time.Duration) *OpenAIImages {
	if model == "" {
		model = openai.CreateImageModelDallE3
	}
	return &OpenAIImages{client: newOpenAIClient(apiKey, baseURL, timeout), model: model}
}

func (c *OpenAIImages) GenerateImage(ctx context.Context, prompt string, opts ImageOptions) ([]byte, error) {
	n := max(1, opts.Count)
	resp, err := c.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          c.model,
		N:              n,
		Size:           openai.CreateImageSize1792x1024,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return nil, ClassifyImageError(err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, &ImageFailure{Kind: ImageFailureEmpty}
	}
	img, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, &ImageFailure{Kind: ImageFailureGeneric, Err: fmt.Errorf("decode image: %w", err)}
	}
	return img, nil
}

// ImageFailureKind groups image errors by the message the player should see.
type ImageFailureKind string

const (
	ImageFailureBilling ImageFailureKind = "billing"
	ImageFailureQuota   ImageFailureKind = "quota"
	ImageFailureEmpty   ImageFailureKind = "empty"
	ImageFailureGeneric ImageFailureKind = "generic"
)

// ImageFailure is a categorized image generation error.
type ImageFailure struct {
	Kind ImageFailureKind
	Err  error
}

func (f *ImageFailure) Error() string {
	if f.Err == nil {
		return "image generation failed: " + string(f.Kind)
	}
	return fmt.Sprintf("image generation failed (%s): %v", f.Kind, f.Err)
}

func (f *ImageFailure) Unwrap() error { return f.Err }

// Message is the player-facing text for the failure.
func (f *ImageFailure) Message() string {
	switch f.Kind {
	case ImageFailureBilling:
		return "Image generation is only available to billed accounts. Check the billing and quota settings."
	case ImageFailureQuota:
		return "Image generation was refused. Check permissions, quota and billing settings."
	case ImageFailureEmpty:
		return "No image was returned. Try a more specific scene."
	default:
		if f.Err != nil {
			return "Image generation error: " + f.Err.Error()
		}
		return "Image generation error."
	}
}

var quotaPattern = regexp.MustCompile(`(?i)permission|quota|disabled|billing`)

// ClassifyImageError wraps err in an *ImageFailure. Errors that already are
// one are returned unchanged.
func ClassifyImageError(err error) *ImageFailure {
	if err == nil {
		return nil
	}
	var f *ImageFailure
	if errors.As(err, &f) {
		return f
	}

	msg := err.Error()
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		msg = apiErr.Message
		if code, ok := apiErr.Code.(string); ok {
			msg += " " + code
		}
		switch apiErr.HTTPStatusCode {
		case 402:
			return &ImageFailure{Kind: ImageFailureBilling, Err: err}
		case 401, 403, 429:
			return &ImageFailure{Kind: ImageFailureQuota, Err: err}
		}
	}

	switch {
	case strings.Contains(strings.ToLower(msg), "only accessible to billed users"):
		return &ImageFailure{Kind: ImageFailureBilling, Err: err}
	case quotaPattern.MatchString(msg):
		return &ImageFailure{Kind: ImageFailureQuota, Err: err}
	default:
		return &ImageFailure{Kind: ImageFailureGeneric, Err: err}
	}
}
