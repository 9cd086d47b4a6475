package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"autoparts_quotes_backend/platform/config"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.0-flash"

const extractionPrompt = `You read Brazilian auto repair estimates (orçamentos).
Return only a JSON object with the vehicle of this document:
{"brand": "", "model": "", "year": "", "plate": "", "chassis": ""}
Rules:
- brand is the manufacturer (e.g. Volkswagen, Fiat, Chevrolet).
- year keeps the "manufacture/model" form when both appear, e.g. "2019/2020".
- plate has no separator, e.g. "ABC1D23".
- chassis is the 17-character VIN.
- Use "" for anything not present. Do not guess.`

// contentGenerator is the part of the genai client the extractor uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiExtractor sends the PDF to Gemini and parses the JSON answer.
type GeminiExtractor struct {
	models contentGenerator
	model  string
}

// NewGeminiExtractor creates the AI extractor. It returns nil when no API key
// is configured.
func NewGeminiExtractor(ctx context.Context, cfg config.ExtractionConfig) (*GeminiExtractor, error) {
	if !cfg.IsExtractionAIEnabled() {
		return nil, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GetGeminiAPIKey(),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	model := cfg.GetGeminiModel()
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiExtractor{models: client.Models, model: model}, nil
}

func (e *GeminiExtractor) Name() string { return "gemini" }

func (e *GeminiExtractor) Extract(ctx context.Context, doc *Document) (Fields, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(doc.PDF, "application/pdf"),
			genai.NewPartFromText(extractionPrompt),
		}, genai.RoleUser),
	}

	resp, err := e.models.GenerateContent(ctx, e.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0),
	})
	if err != nil {
		return Fields{}, fmt.Errorf("gemini generate: %w", err)
	}
	return parseFieldsJSON(resp.Text())
}

func parseFieldsJSON(text string) (Fields, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)
	if text == "" {
		return Fields{}, errors.New("empty model response")
	}

	var f Fields
	if err := json.Unmarshal([]byte(text), &f); err != nil {
		return Fields{}, fmt.Errorf("decode model response: %w", err)
	}
	return f, nil
}
