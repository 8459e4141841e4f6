package model

import "fmt"

// Mode selects the creative production track for a session. It changes
// prompt strategy and the semantics of concept fields, not the call shape.
type Mode string

const (
	// ModeVideo produces short-form video ads: storyboard is a shot list,
	// script is spoken narration.
	ModeVideo Mode = "video"
	// ModeImage produces social image series: storyboard is an image list,
	// script is a social caption.
	ModeImage Mode = "image"
	// ModePDP produces product detail pages: storyboard is a page-section
	// list, script is marketing copy.
	ModePDP Mode = "pdp"
)

// Valid reports whether m is one of the three enumerated modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeVideo, ModeImage, ModePDP:
		return true
	}
	return false
}

// ParseMode converts a string into a Mode, rejecting anything outside the
// closed set.
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if !m.Valid() {
		return "", fmt.Errorf("invalid mode %q (want video, image, or pdp)", s)
	}
	return m, nil
}
