package engine

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/dqalex/OmniSpark/internal/model"
)

func shotJSON(descs []model.ShotDescriptor) string {
	b, _ := json.Marshal(descs)
	return string(b)
}

func fourShots() []model.ShotDescriptor {
	return []model.ShotDescriptor{
		{Label: "Opening", Instruction: "Reveal the mug in a spotlight."},
		{Label: "Close-up", Instruction: "Macro shot of the glaze."},
		{Label: "Lifestyle", Instruction: "Mug on a kitchen counter at dawn."},
		{Label: "Closing", Instruction: "Center the mug with space for text."},
	}
}

func TestParseShots(t *testing.T) {
	text := &fakeText{response: shotJSON(fourShots())}
	d := NewDecomposer(text, NewVisualStudio(&fakeImage{}), discardLogger())

	got := d.ParseShots(context.Background(), "1. open 2. close-up 3. lifestyle 4. closing", model.ModeVideo, "Mug")
	if len(got) != ShotCount {
		t.Fatalf("len = %d, want %d", len(got), ShotCount)
	}
	if got[0].Label != "Opening" {
		t.Errorf("got[0].Label = %q", got[0].Label)
	}
}

func TestParseShotsFallsBackToDefaults(t *testing.T) {
	tests := []struct {
		name string
		text *fakeText
	}{
		{"client error", &fakeText{err: errors.New("boom")}},
		{"invalid JSON", &fakeText{response: "not json"}},
		{"no usable shots", &fakeText{response: `[{"label":"","instruction":""}]`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDecomposer(tt.text, NewVisualStudio(&fakeImage{}), discardLogger())
			got := d.ParseShots(context.Background(), "some storyboard", model.ModeImage, "Mug")
			if len(got) != ShotCount {
				t.Fatalf("len = %d, want %d", len(got), ShotCount)
			}
			if got[0].Label != "Hero shot" {
				t.Errorf("got[0].Label = %q, want default set", got[0].Label)
			}
			if !strings.Contains(got[0].Instruction, "Mug") {
				t.Error("defaults should mention the product")
			}
		})
	}
}

func TestParseShotsPadsShortResults(t *testing.T) {
	two := fourShots()[:2]
	d := NewDecomposer(&fakeText{response: shotJSON(two)}, NewVisualStudio(&fakeImage{}), discardLogger())

	got := d.ParseShots(context.Background(), "storyboard", model.ModeVideo, "Mug")
	if len(got) != ShotCount {
		t.Fatalf("len = %d, want %d", len(got), ShotCount)
	}
	if got[0].Label != "Opening" || got[1].Label != "Close-up" {
		t.Error("parsed shots should keep their order")
	}
	if got[2].Label != "Context scene" || got[3].Label != "Creative angle" {
		t.Errorf("padding = (%q, %q), want default tail", got[2].Label, got[3].Label)
	}
}

func TestParseShotsEmptyStoryboard(t *testing.T) {
	text := &fakeText{response: shotJSON(fourShots())}
	d := NewDecomposer(text, NewVisualStudio(&fakeImage{}), discardLogger())

	got := d.ParseShots(context.Background(), "   ", model.ModeVideo, "Mug")
	if got[0].Label != "Hero shot" {
		t.Error("blank storyboard should use the default set without a model call")
	}
	if text.lastPrompt != "" {
		t.Error("blank storyboard must not reach the text client")
	}
}

func renderInput(shots []model.ShotDescriptor) RenderInput {
	concept := model.NewConcept("c-1", testBrief(), model.ModeVideo)
	concept.Title = "Slow Sunday"
	return RenderInput{
		Base:    model.MediaPayload{MimeType: "image/png", Data: []byte("base")},
		Shots:   shots,
		Options: model.ImageOptions{AspectRatio: "16:9"},
		Concept: concept,
	}
}

func TestRenderShots(t *testing.T) {
	img := &fakeImage{}
	d := NewDecomposer(&fakeText{}, NewVisualStudio(img), discardLogger())
	hist := &recordingHistory{}

	got := d.RenderShots(context.Background(), renderInput(fourShots()), hist)
	if len(got) != ShotCount {
		t.Fatalf("len = %d, want %d", len(got), ShotCount)
	}
	// Completion order may vary; result order must not.
	for i, want := range fourShots() {
		if got[i].Label != want.Label {
			t.Errorf("got[%d].Label = %q, want %q", i, got[i].Label, want.Label)
		}
		if got[i].ArtifactID == "" {
			t.Errorf("got[%d] missing artifact id", i)
		}
	}
	if len(hist.images) != ShotCount {
		t.Errorf("history received %d images, want %d", len(hist.images), ShotCount)
	}
	for _, a := range hist.images {
		if a.ConceptID != "c-1" || a.Mode != model.ModeVideo {
			t.Errorf("artifact lineage = (%q, %q)", a.ConceptID, a.Mode)
		}
	}
}

func TestRenderShotsDropsFailedShot(t *testing.T) {
	img := &fakeImage{failOn: func(prompt string) error {
		if strings.Contains(prompt, "Macro shot") {
			return model.NewGenerationError(model.KindEmptyResult, "no image produced")
		}
		return nil
	}}
	d := NewDecomposer(&fakeText{}, NewVisualStudio(img), discardLogger())
	hist := &recordingHistory{}

	got := d.RenderShots(context.Background(), renderInput(fourShots()), hist)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3 surviving shots", len(got))
	}
	for _, shot := range got {
		if shot.Label == "Close-up" {
			t.Error("failed shot should be dropped from the result")
		}
	}
	// Order of the survivors is preserved.
	if got[0].Label != "Opening" || got[1].Label != "Lifestyle" || got[2].Label != "Closing" {
		t.Errorf("survivor order = %q, %q, %q", got[0].Label, got[1].Label, got[2].Label)
	}
	if len(hist.images) != 3 {
		t.Errorf("history received %d images, want 3", len(hist.images))
	}
	// All four renders were attempted; the failure cancelled nothing.
	if img.calls() != ShotCount {
		t.Errorf("render calls = %d, want %d", img.calls(), ShotCount)
	}
}

func TestRegenerateShot(t *testing.T) {
	img := &fakeImage{}
	d := NewDecomposer(&fakeText{}, NewVisualStudio(img), discardLogger())
	hist := &recordingHistory{}
	in := renderInput(fourShots())

	shot, err := d.RegenerateShot(context.Background(), in, 1, "Make the glaze glossier.", hist)
	if err != nil {
		t.Fatalf("RegenerateShot: %v", err)
	}
	if shot.Label != "Close-up" {
		t.Errorf("label = %q", shot.Label)
	}
	if shot.Instruction != "Make the glaze glossier." {
		t.Errorf("instruction = %q, want the override", shot.Instruction)
	}
	if len(hist.images) != 1 {
		t.Errorf("history received %d images, want 1", len(hist.images))
	}

	if _, err := d.RegenerateShot(context.Background(), in, 9, "", hist); err == nil {
		t.Error("out-of-range index should fail")
	}
}

func TestRegenerateShotKeepsInstructionWhenBlank(t *testing.T) {
	d := NewDecomposer(&fakeText{}, NewVisualStudio(&fakeImage{}), discardLogger())
	in := renderInput(fourShots())

	shot, err := d.RegenerateShot(context.Background(), in, 0, "   ", &recordingHistory{})
	if err != nil {
		t.Fatalf("RegenerateShot: %v", err)
	}
	if shot.Instruction != in.Shots[0].Instruction {
		t.Errorf("instruction = %q, want original kept", shot.Instruction)
	}
}
