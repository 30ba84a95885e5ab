package gemini

import (
	"context"
	"strings"

	"cloud.google.com/go/vertexai/genai"

	"github.com/doctrans/doctrans/internal/config"
	"github.com/doctrans/doctrans/internal/errs"
)

// Extractor sends rasterized page images to a Gemini vision model on
// Vertex AI. It provides the vision capability consumed by page extraction.
type Extractor struct {
	model      *genai.GenerativeModel
	baseClient *genai.Client
}

// NewExtractor creates a Vertex AI backed extractor. Missing project or
// region is a config error and aborts the job.
func NewExtractor(ctx context.Context, cfg config.VisionConfig) (*Extractor, error) {
	if cfg.ProjectID == "" {
		return nil, errs.New(errs.KindConfig, "VISION_PROJECT_ID is required")
	}
	if cfg.Region == "" {
		return nil, errs.New(errs.KindConfig, "VISION_REGION is required")
	}
	if cfg.Model == "" {
		return nil, errs.New(errs.KindConfig, "VISION_MODEL is required")
	}

	baseClient, err := genai.NewClient(ctx, cfg.ProjectID, cfg.Region)
	if err != nil {
		return nil, errs.Wrap(err, errs.KindConfig, "failed to create vertex client")
	}

	model := baseClient.GenerativeModel(cfg.Model)
	model.GenerationConfig = genai.GenerationConfig{
		// Low temperature for deterministic structure detection.
		Temperature: genai.Ptr[float32](0.1),
	}

	return &Extractor{
		model:      model,
		baseClient: baseClient,
	}, nil
}

// Generate sends the instruction prompt and the PNG page image to the
// vision model and returns the concatenated text parts of the response.
func (e *Extractor) Generate(ctx context.Context, prompt string, image []byte) (string, error) {
	resp, err := e.model.GenerateContent(ctx,
		genai.ImageData("png", image),
		genai.Text(prompt),
	)
	if err != nil {
		return "", errs.Wrap(err, errs.KindProvider, "vision model call failed")
	}

	text := responseText(resp)
	if text == "" {
		return "", errs.New(errs.KindProvider, "vision model returned no text parts")
	}
	return text, nil
}

func (e *Extractor) Close() error {
	if e.baseClient != nil {
		return e.baseClient.Close()
	}
	return nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return strings.TrimSpace(sb.String())
}
