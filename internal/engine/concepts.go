package engine

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/dqalex/OmniSpark/internal/model"
)

// ConceptCount is the fixed number of concepts produced per generation.
const ConceptCount = 3

// ConceptGenerator turns a product brief into mode-differentiated creative
// concepts. It does not persist; the caller appends results to history.
type ConceptGenerator struct {
	text TextClient
}

// NewConceptGenerator creates a generator backed by the given text client.
func NewConceptGenerator(text TextClient) *ConceptGenerator {
	return &ConceptGenerator{text: text}
}

type conceptPayload struct {
	Title       string `json:"title"`
	Narrative   string `json:"narrative"`
	Script      string `json:"script"`
	Storyboard  string `json:"storyboard"`
	ImagePrompt string `json:"image_prompt"`
}

// Generate produces exactly ConceptCount concepts for the brief and mode.
// Reference images are attached as multimodal context, never substituted
// into the prompt text. A missing or unparsable structured result is fatal
// to the call; it is never retried automatically.
func (g *ConceptGenerator) Generate(ctx context.Context, brief model.ProductBrief, mode model.Mode, refs []model.MediaPayload) ([]model.Concept, error) {
	if err := brief.Validate(); err != nil {
		return nil, err
	}
	if !mode.Valid() {
		return nil, model.NewGenerationError(model.KindParseFailure, "invalid mode "+string(mode))
	}

	prompt := buildConceptPrompt(brief.Name, brief.Description, brief.Direction, string(mode), ConceptCount)
	raw, err := g.text.GenerateText(ctx, prompt, refs, true)
	if err != nil {
		return nil, err
	}

	var payloads []conceptPayload
	if err := json.Unmarshal([]byte(stripJSONFences(raw)), &payloads); err != nil {
		return nil, model.WrapGenerationError(model.KindParseFailure, "concept result is not valid JSON", err)
	}
	if len(payloads) < ConceptCount {
		return nil, model.NewGenerationError(model.KindParseFailure, "concept result has too few entries")
	}
	payloads = payloads[:ConceptCount]

	concepts := make([]model.Concept, 0, ConceptCount)
	for _, p := range payloads {
		if strings.TrimSpace(p.Title) == "" || strings.TrimSpace(p.Storyboard) == "" {
			return nil, model.NewGenerationError(model.KindParseFailure, "concept entry missing required fields")
		}
		c := model.NewConcept(uuid.New().String(), brief, mode)
		c.Title = strings.TrimSpace(p.Title)
		c.Narrative = strings.TrimSpace(p.Narrative)
		c.Script = strings.TrimSpace(p.Script)
		c.Storyboard = strings.TrimSpace(p.Storyboard)
		c.ImagePrompt = strings.TrimSpace(p.ImagePrompt)
		concepts = append(concepts, c)
	}
	return concepts, nil
}
