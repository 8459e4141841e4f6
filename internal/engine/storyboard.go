package engine

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dqalex/OmniSpark/internal/model"
)

// ShotCount is the fixed number of storyboard units per decomposition.
const ShotCount = 4

// defaultShots is the degrade-gracefully fallback when shot parsing fails:
// production is never blocked on a malformed parse result.
func defaultShots(productName string) []model.ShotDescriptor {
	return []model.ShotDescriptor{
		{Label: "Hero shot", Instruction: "Place " + productName + " front and center on a clean studio background with dramatic commercial lighting."},
		{Label: "Detail close-up", Instruction: "Zoom into the most distinctive feature of " + productName + " with shallow depth of field."},
		{Label: "Context scene", Instruction: "Show " + productName + " in a realistic everyday usage environment."},
		{Label: "Creative angle", Instruction: "Reframe " + productName + " from an unexpected dramatic angle with bold colors."},
	}
}

// Decomposer runs the two-phase storyboard pipeline: parse a free-text
// storyboard into exactly ShotCount shot instructions, then fan out
// concurrent image edits against a shared base image.
type Decomposer struct {
	text   TextClient
	studio *VisualStudio
	logger *slog.Logger
}

// NewDecomposer creates a storyboard decomposer.
func NewDecomposer(text TextClient, studio *VisualStudio, logger *slog.Logger) *Decomposer {
	return &Decomposer{text: text, studio: studio, logger: logger}
}

// ParseShots extracts exactly ShotCount shot descriptors from a free-text
// storyboard. Parsing problems degrade to the fixed default set instead of
// failing; a short parse result is padded from the defaults so the count
// invariant always holds.
func (d *Decomposer) ParseShots(ctx context.Context, storyboard string, mode model.Mode, productName string) []model.ShotDescriptor {
	fallback := defaultShots(productName)
	if strings.TrimSpace(storyboard) == "" {
		return fallback
	}

	prompt := buildShotParsePrompt(storyboard, string(mode), ShotCount)
	raw, err := d.text.GenerateText(ctx, prompt, nil, true)
	if err != nil {
		d.logger.Warn("shot parse failed, using default shots", "error", err)
		return fallback
	}

	var parsed []model.ShotDescriptor
	if err := json.Unmarshal([]byte(stripJSONFences(raw)), &parsed); err != nil {
		d.logger.Warn("shot parse returned invalid JSON, using default shots", "error", err)
		return fallback
	}

	shots := make([]model.ShotDescriptor, 0, ShotCount)
	for _, s := range parsed {
		if strings.TrimSpace(s.Label) == "" || strings.TrimSpace(s.Instruction) == "" {
			continue
		}
		shots = append(shots, model.ShotDescriptor{
			Label:       strings.TrimSpace(s.Label),
			Instruction: strings.TrimSpace(s.Instruction),
		})
		if len(shots) == ShotCount {
			break
		}
	}
	if len(shots) == 0 {
		d.logger.Warn("shot parse yielded no usable shots, using default shots")
		return fallback
	}
	for len(shots) < ShotCount {
		shots = append(shots, fallback[len(shots)])
	}
	return shots
}

// RenderInput carries everything one render batch needs.
type RenderInput struct {
	Base      model.MediaPayload
	Shots     []model.ShotDescriptor
	Reference *model.MediaPayload
	Options   model.ImageOptions
	Concept   model.Concept
}

// RenderShots renders the shot descriptors concurrently against the shared
// base image. Each shot is independent: a failed render is logged and
// dropped, never failing the batch. Results keep label order regardless of
// completion order, and every success is appended to history before the
// batch returns.
func (d *Decomposer) RenderShots(ctx context.Context, in RenderInput, hist ImageAppender) []model.Shot {
	slots := make([]*model.Shot, len(in.Shots))

	var g errgroup.Group
	for i, desc := range in.Shots {
		g.Go(func() error {
			payload, err := d.studio.EditScene(ctx, in.Base, desc.Instruction, in.Reference, in.Options)
			if err != nil {
				d.logger.Warn("shot render failed, dropping shot",
					"label", desc.Label, "error", err)
				return nil
			}
			artifact := model.NewImageArtifact(uuid.New().String(), payload, "Storyboard: "+desc.Label, in.Concept)
			hist.AddImage(artifact)
			slots[i] = &model.Shot{
				Label:       desc.Label,
				Instruction: desc.Instruction,
				Payload:     payload,
				ArtifactID:  artifact.ID,
			}
			return nil
		})
	}
	g.Wait()

	shots := make([]model.Shot, 0, len(slots))
	for _, s := range slots {
		if s != nil {
			shots = append(shots, *s)
		}
	}
	return shots
}

// RegenerateShot re-renders a single shot with a user-edited instruction.
// On success the caller replaces the working-set entry in place; the old
// shot's history record is never removed.
func (d *Decomposer) RegenerateShot(ctx context.Context, in RenderInput, index int, instruction string, hist ImageAppender) (model.Shot, error) {
	if index < 0 || index >= len(in.Shots) {
		return model.Shot{}, model.NewGenerationError(model.KindParseFailure, "shot index out of range")
	}
	desc := in.Shots[index]
	if strings.TrimSpace(instruction) != "" {
		desc.Instruction = strings.TrimSpace(instruction)
	}

	payload, err := d.studio.EditScene(ctx, in.Base, desc.Instruction, in.Reference, in.Options)
	if err != nil {
		return model.Shot{}, err
	}
	artifact := model.NewImageArtifact(uuid.New().String(), payload, "Storyboard: "+desc.Label, in.Concept)
	hist.AddImage(artifact)

	return model.Shot{
		Label:       desc.Label,
		Instruction: desc.Instruction,
		Payload:     payload,
		ArtifactID:  artifact.ID,
	}, nil
}
