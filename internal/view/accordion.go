package view

import "slices"

const (
	SectionExamples = "examples"
	SectionMedia    = "media"
)

// Accordion tracks collapsible sections of a document. At most one section
// is open at a time.
type Accordion struct {
	sections []string
	open     string
}

func NewAccordion(sections ...string) *Accordion {
	return &Accordion{sections: sections}
}

// Toggle opens name, closing any other section, or closes it when it is
// already open. Unknown sections are ignored. It reports whether name is
// open afterwards.
func (a *Accordion) Toggle(name string) bool {
	if !slices.Contains(a.sections, name) {
		return false
	}
	if a.open == name {
		a.open = ""
		return false
	}
	a.open = name
	return true
}

func (a *Accordion) IsOpen(name string) bool {
	return name != "" && a.open == name
}

// Current returns the open section, or "" when all are closed.
func (a *Accordion) Current() string { return a.open }

func (a *Accordion) CloseAll() { a.open = "" }

func (a *Accordion) Sections() []string {
	return slices.Clone(a.sections)
}
