// Package directory holds the human escalation contacts suggested at the end of a walk.
package directory

import (
	"slices"

	"github.com/aretw0/skphelp/pkg/domain"
)

// Directory is an immutable list of contacts.
type Directory struct {
	contacts []domain.Contact
}

// New copies contacts into a Directory.
func New(contacts []domain.Contact) *Directory {
	return &Directory{contacts: clone(contacts)}
}

// All returns every contact.
func (d *Directory) All() []domain.Contact {
	return clone(d.contacts)
}

// ContactsFor returns the whole directory when node asks for human contact and an empty list otherwise.
// Contacts are not filtered by specialty.
func (d *Directory) ContactsFor(node domain.Node) []domain.Contact {
	if !domain.IsContactTrigger(node) {
		return []domain.Contact{}
	}
	return d.All()
}

// Get finds a contact by id.
func (d *Directory) Get(id string) (domain.Contact, bool) {
	i := slices.IndexFunc(d.contacts, func(c domain.Contact) bool { return c.ID == id })
	if i < 0 {
		return domain.Contact{}, false
	}
	return cloneContact(d.contacts[i]), true
}

func clone(in []domain.Contact) []domain.Contact {
	out := make([]domain.Contact, len(in))
	for i, c := range in {
		out[i] = cloneContact(c)
	}
	return out
}

func cloneContact(c domain.Contact) domain.Contact {
	c.Specialties = slices.Clone(c.Specialties)
	return c
}
