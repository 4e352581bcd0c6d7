package model

// PageMeta is the SEO meta data of a static site page.
type PageMeta struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Robots      string `json:"robots"`
	Image       string `json:"image,omitempty"`
	Canonical   string `json:"canonical"`
}

// Merge returns m with every empty field filled from defaults.
func (m PageMeta) Merge(defaults PageMeta) PageMeta {
	if m.Title == "" {
		m.Title = defaults.Title
	}
	if m.Description == "" {
		m.Description = defaults.Description
	}
	if m.Robots == "" {
		m.Robots = defaults.Robots
	}
	if m.Image == "" {
		m.Image = defaults.Image
	}
	if m.Canonical == "" {
		m.Canonical = defaults.Canonical
	}
	return m
}
