package domain

// Contact is a human escalation point suggested by contact-trigger terminals.
type Contact struct {
	ID           string   `json:"id" yaml:"id" mapstructure:"id"`
	Name         string   `json:"name" yaml:"name" mapstructure:"name"`
	Role         string   `json:"role" yaml:"role" mapstructure:"role"`
	WhatsApp     string   `json:"whatsapp" yaml:"whatsapp" mapstructure:"whatsapp"`
	Email        string   `json:"email" yaml:"email" mapstructure:"email"`
	Specialties  []string `json:"specialties" yaml:"specialties" mapstructure:"specialties"`
	Availability string   `json:"availability" yaml:"availability" mapstructure:"availability"`
}

// WhatsAppLink returns the click-to-chat URL for the contact.
func (c Contact) WhatsAppLink() string {
	if c.WhatsApp == "" {
		return ""
	}
	return "https://wa.me/" + c.WhatsApp
}
