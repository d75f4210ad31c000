package helpdesk

import (
	"slices"

	"github.com/aretw0/skphelp/pkg/domain"
)

// TemplateCatalog holds the canned staff responses. It is read-only.
type TemplateCatalog struct {
	templates []domain.Template
}

// NewTemplateCatalog creates a catalog from templates.
func NewTemplateCatalog(templates []domain.Template) *TemplateCatalog {
	return &TemplateCatalog{templates: slices.Clone(templates)}
}

// All returns every template in catalog order.
func (c *TemplateCatalog) All() []domain.Template {
	return slices.Clone(c.templates)
}
