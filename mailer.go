package auth

import (
	"context"
	"fmt"
)

// logMailer is the default Mailer: it logs the send instead of delivering.
// Real delivery is an external collaborator wired by the host application.
type logMailer struct {
	logger Logger
}

// NewLogMailer returns a Mailer that records sends on the logger. Useful
// for development and as the default when no collaborator is wired.
func NewLogMailer(logger Logger) Mailer {
	if logger == nil {
		logger = defLogger{}
	}
	return logMailer{logger: logger}
}

func (m logMailer) Send(_ context.Context, template string, vars map[string]string) error {
	m.logger.Info("mail send template=%s to=%s url=%s", template, vars["email"], vars["url"])
	return nil
}

func verificationLink(host, token string) string {
	return fmt.Sprintf("%s/verify/%s", host, token)
}

func passwordResetLink(host, token string) string {
	return fmt.Sprintf("%s/change-password/%s", host, token)
}

func loginLink(host string) string {
	return fmt.Sprintf("%s/login", host)
}

func mailVars(user *User, url string) map[string]string {
	vars := map[string]string{
		"url": url,
	}
	if user != nil {
		vars["email"] = user.Email
		vars["first_name"] = user.FirstName
		vars["last_name"] = user.LastName
	}
	return vars
}
