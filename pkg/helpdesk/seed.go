package helpdesk

import (
	_ "embed"
	"fmt"
	"time"

	"github.com/aretw0/skphelp/pkg/auth"
	"github.com/aretw0/skphelp/pkg/domain"
	"gopkg.in/yaml.v3"
)

//go:embed data/seed.yaml
var seedDocument []byte

const seedDateLayout = "2006-01-02"

// Seed is the demo content a fresh server starts with.
type Seed struct {
	Users        []domain.UserAccount
	FAQs         []domain.FAQItem
	Tickets      []domain.Ticket
	Templates    []domain.Template
	IssueStats   []domain.StatData
	MonthlyStats []domain.StatData
}

type seedUser struct {
	NIP       string `yaml:"nip"`
	Password  string `yaml:"password"`
	Name      string `yaml:"name"`
	Role      string `yaml:"role"`
	UnitKerja string `yaml:"unit_kerja"`
}

type seedTicket struct {
	ID       string  `yaml:"id"`
	Date     string  `yaml:"date"`
	NIP      string  `yaml:"nip"`
	Name     string  `yaml:"name"`
	Unit     string  `yaml:"unit"`
	Category string  `yaml:"category"`
	Question string  `yaml:"question"`
	Answer   *string `yaml:"answer"`
	Status   string  `yaml:"status"`
}

type seedFile struct {
	Users        []seedUser        `yaml:"users"`
	FAQs         []domain.FAQItem  `yaml:"faqs"`
	Tickets      []seedTicket      `yaml:"tickets"`
	Templates    []domain.Template `yaml:"templates"`
	IssueStats   []domain.StatData `yaml:"issue_stats"`
	MonthlyStats []domain.StatData `yaml:"monthly_stats"`
}

// LoadSeed decodes the embedded seed document and hashes its passwords.
func LoadSeed() (*Seed, error) {
	var f seedFile
	if err := yaml.Unmarshal(seedDocument, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed data: %w", err)
	}

	seed := &Seed{
		FAQs:         f.FAQs,
		Templates:    f.Templates,
		IssueStats:   f.IssueStats,
		MonthlyStats: f.MonthlyStats,
	}

	for _, u := range f.Users {
		hash, err := auth.HashPassword(u.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash seed password for %s: %w", u.NIP, err)
		}
		seed.Users = append(seed.Users, domain.UserAccount{
			UserProfile: domain.UserProfile{
				NIP:       u.NIP,
				Name:      u.Name,
				Role:      domain.Role(u.Role),
				UnitKerja: u.UnitKerja,
			},
			PasswordHash: hash,
		})
	}

	for _, t := range f.Tickets {
		date, err := time.Parse(seedDateLayout, t.Date)
		if err != nil {
			return nil, fmt.Errorf("seed ticket %s: %w", t.ID, err)
		}
		seed.Tickets = append(seed.Tickets, domain.Ticket{
			ID:       t.ID,
			Date:     date,
			NIP:      t.NIP,
			Name:     t.Name,
			Unit:     t.Unit,
			Category: t.Category,
			Question: t.Question,
			Answer:   t.Answer,
			Status:   domain.TicketStatus(t.Status),
		})
	}

	return seed, nil
}
