package model

import "time"

// Concept is one AI-proposed creative unit. The meaning of Storyboard and
// Script depends on the mode: a shot list with narration for video, an image
// list with a caption for image series, a section list with marketing copy
// for product pages. Concepts are immutable after creation; an edit produces
// a new Concept.
type Concept struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Narrative   string `json:"narrative"`
	Script      string `json:"script"`
	Storyboard  string `json:"storyboard"`
	ImagePrompt string `json:"image_prompt"`

	ProductName string `json:"product_name"`
	Direction   string `json:"direction"`
	Mode        Mode   `json:"mode"`
	CreatedAt   string `json:"created_at"`
}

// NewConcept stamps a generated concept with its id and lineage.
func NewConcept(id string, brief ProductBrief, mode Mode) Concept {
	return Concept{
		ID:          id,
		ProductName: brief.Name,
		Direction:   brief.Direction,
		Mode:        mode,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
	}
}
