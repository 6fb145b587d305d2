package model

// Category groups events under a name and a display color.
type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// CategoryPatch carries the fields of a partial category update.
type CategoryPatch struct {
	Name  *string `json:"name,omitempty"`
	Color *string `json:"color,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p CategoryPatch) Empty() bool {
	return p.Name == nil && p.Color == nil
}

// Apply returns c with the patch applied.
func (p CategoryPatch) Apply(c Category) Category {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Color != nil {
		c.Color = *p.Color
	}
	return c
}
