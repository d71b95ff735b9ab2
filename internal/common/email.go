package common

// EmailSender delivers one rendered message to one recipient.
type EmailSender interface {
	Send(to, subject, html string) error
}

// Email is a single captured message.
type Email struct {
	To      string
	Subject string
	HTML    string
}

// InMemoryEmail records sent messages instead of delivering them. Used by
// tests and by the worker when no provider is configured.
type InMemoryEmail struct {
	Outbox []Email
}

// Send appends the message to the outbox.
func (m *InMemoryEmail) Send(to, subject, html string) error {
	if m == nil {
		return nil
	}
	m.Outbox = append(m.Outbox, Email{To: to, Subject: subject, HTML: html})
	return nil
}

// NopEmailSender drops every message.
type NopEmailSender struct{}

// Send implements EmailSender.
func (NopEmailSender) Send(string, string, string) error { return nil }
