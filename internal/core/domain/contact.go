package domain

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	maxNameLength    = 100
	maxMessageLength = 5000
)

var (
	emailPattern        = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	angleBrackets       = regexp.MustCompile(`[<>]`)
	javascriptScheme    = regexp.MustCompile(`(?i)javascript:`)
	inlineEventHandlers = regexp.MustCompile(`(?i)on\w+\s*=`)
)

// ContactRequest representa o payload enviado pelo formulário de contato.
// Website é o campo honeypot: humanos nunca o preenchem.
type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
	Website string `json:"website,omitempty"`
}

type ContactResult struct {
	NotificationID string
	ConfirmationID string
	Honeypot       bool
}

// Message é o envelope entregue ao Mailer.
type Message struct {
	From    string
	To      []string
	ReplyTo string
	Subject string
	HTML    string
}

func (c ContactRequest) IsHoneypot() bool {
	return strings.TrimSpace(c.Website) != ""
}

func (c ContactRequest) Validate() error {
	var details []string

	name := strings.TrimSpace(c.Name)
	switch {
	case c.Name == "":
		details = append(details, "Name is required and must be a string")
	case name == "" || utf8.RuneCountInString(name) > maxNameLength:
		details = append(details, "Name must be between 1 and 100 characters")
	}

	switch {
	case c.Email == "":
		details = append(details, "Email is required and must be a string")
	case !emailPattern.MatchString(strings.TrimSpace(c.Email)):
		details = append(details, "Email must be a valid email address")
	}

	message := strings.TrimSpace(c.Message)
	switch {
	case c.Message == "":
		details = append(details, "Message is required and must be a string")
	case message == "" || utf8.RuneCountInString(message) > maxMessageLength:
		details = append(details, "Message is required")
	}

	if len(details) > 0 {
		return &ValidationError{Details: details}
	}
	return nil
}

// Normalize devolve uma cópia sanitizada, com o email em minúsculas.
func (c ContactRequest) Normalize() ContactRequest {
	return ContactRequest{
		Name:    Sanitize(c.Name),
		Email:   strings.ToLower(strings.TrimSpace(c.Email)),
		Message: Sanitize(c.Message),
	}
}

// Sanitize remove sinais de tag, URLs javascript: e handlers de evento inline.
func Sanitize(content string) string {
	content = strings.TrimSpace(content)
	content = angleBrackets.ReplaceAllString(content, "")
	content = javascriptScheme.ReplaceAllString(content, "")
	return inlineEventHandlers.ReplaceAllString(content, "")
}

// MaskValue mantém os primeiros n caracteres de um valor para logs.
func MaskValue(value string, n int) string {
	runes := []rune(value)
	if len(runes) <= n {
		return value + "***"
	}
	return string(runes[:n]) + "***"
}
