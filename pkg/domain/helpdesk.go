package domain

import "time"

// Role distinguishes regular employees from back-office staff.
type Role string

const (
	RoleASN   Role = "asn"
	RoleAdmin Role = "admin"
)

// UserProfile is the identity of a logged-in user.
type UserProfile struct {
	NIP       string `json:"nip"`
	Name      string `json:"name"`
	Role      Role   `json:"role"`
	UnitKerja string `json:"unit_kerja,omitempty"`
}

// UserAccount is a stored user. PasswordHash is a bcrypt hash and never leaves the server.
type UserAccount struct {
	UserProfile
	PasswordHash []byte `json:"-"`
}

// CategoryAll matches every FAQ category.
const CategoryAll = "Semua"

// FAQItem is a knowledge-base entry.
type FAQItem struct {
	ID       string `json:"id" yaml:"id"`
	Category string `json:"category" yaml:"category"`
	Question string `json:"question" yaml:"question"`
	Answer   string `json:"answer" yaml:"answer"`
	Views    int    `json:"views" yaml:"views"`
}

// TicketStatus tracks the handling of a consultation ticket.
type TicketStatus string

const (
	TicketPending    TicketStatus = "pending"
	TicketProcessing TicketStatus = "processing"
	TicketResolved   TicketStatus = "resolved"
)

// Ticket is a consultation request submitted by an employee.
type Ticket struct {
	ID       string       `json:"id"`
	Date     time.Time    `json:"date"`
	NIP      string       `json:"nip"`
	Name     string       `json:"name"`
	Unit     string       `json:"unit"`
	Category string       `json:"category"`
	Question string       `json:"question"`
	Answer   *string      `json:"answer"`
	Status   TicketStatus `json:"status"`
}

// Template is a canned response used by helpdesk staff.
type Template struct {
	ID      string `json:"id" yaml:"id"`
	Title   string `json:"title" yaml:"title"`
	Content string `json:"content" yaml:"content"`
}

// StatData is a named counter for dashboard charts.
type StatData struct {
	Name  string `json:"name" yaml:"name"`
	Value int    `json:"value" yaml:"value"`
}

// SKPStatus is the approval stage of an employee's performance plan.
type SKPStatus string

const (
	SKPDraft       SKPStatus = "Draft"
	SKPPengajuan   SKPStatus = "Pengajuan"
	SKPPersetujuan SKPStatus = "Persetujuan"
	SKPDinilai     SKPStatus = "Dinilai"
)

// Supervisor identifies the direct supervisor in an SKP snapshot.
type Supervisor struct {
	Name   string `json:"nama"`
	NIP    string `json:"nip"`
	Status string `json:"status"`
}

// SKPSnapshot is the real-time performance plan status fetched from the upstream system.
type SKPSnapshot struct {
	Period           string     `json:"periode"`
	Year             string     `json:"tahun"`
	Status           SKPStatus  `json:"status_skp"`
	Supervisor       Supervisor `json:"atasan_langsung"`
	RHKCount         int        `json:"jumlah_rhk"`
	LastQuarterGrade string     `json:"predikat_triwulan_terakhir"`
	LastSync         time.Time  `json:"last_sync"`
}
