package service

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/url"
)

//go:embed templates/*.html
var emailTemplateFS embed.FS

var emailTemplates = template.Must(template.ParseFS(emailTemplateFS, "templates/*.html"))

// Message is a rendered email ready for the transport.
type Message struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type EmailSettings struct {
	ProjectName string
	// ServerHost is the frontend base URL, with a trailing slash.
	ServerHost string
}

type emailTemplateData struct {
	ProjectName string
	Username    string
	Email       string
	ValidHours  int
	Link        string
}

// EmailNotifier renders the account emails and hands them to a Mailer.
type EmailNotifier struct {
	mailer   Mailer
	settings EmailSettings
}

func NewEmailNotifier(mailer Mailer, settings EmailSettings) *EmailNotifier {
	return &EmailNotifier{mailer: mailer, settings: settings}
}

func (n *EmailNotifier) SendActivation(ctx context.Context, notification ActivationNotification) error {
	msg, err := n.render("account_activation.html",
		fmt.Sprintf("%s - Account activation for user %s", n.settings.ProjectName, notification.Email),
		"auth/activate", notification.Email, notification.Username, notification.Nonce, notification.ValidHours)
	if err != nil {
		return err
	}
	return n.mailer.Send(ctx, msg)
}

func (n *EmailNotifier) SendPasswordReset(ctx context.Context, notification PasswordResetNotification) error {
	msg, err := n.render("reset_password.html",
		fmt.Sprintf("%s - Password recovery for user %s", n.settings.ProjectName, notification.Email),
		"auth/reset-password", notification.Email, notification.Username, notification.Nonce, notification.ValidHours)
	if err != nil {
		return err
	}
	return n.mailer.Send(ctx, msg)
}

func (n *EmailNotifier) render(tmpl, subject, path, email, username, nonce string, validHours int) (Message, error) {
	if username == "" {
		username = email
	}
	data := emailTemplateData{
		ProjectName: n.settings.ProjectName,
		Username:    username,
		Email:       email,
		ValidHours:  validHours,
		Link:        n.settings.ServerHost + path + "?nonce=" + url.QueryEscape(nonce),
	}
	var html bytes.Buffer
	if err := emailTemplates.ExecuteTemplate(&html, tmpl, data); err != nil {
		return Message{}, fmt.Errorf("render %s: %w", tmpl, err)
	}
	return Message{
		To:       email,
		Subject:  subject,
		TextBody: data.Link,
		HTMLBody: html.String(),
	}, nil
}
