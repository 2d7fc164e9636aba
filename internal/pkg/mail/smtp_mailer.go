package mail

import (
	"fmt"
	"log"
	"net/smtp"

	"github.com/shopfox/shopfox/internal/pkg/env"
)

// SendMail sends an email via SMTP
func SendMail(to string, subject string, body string) error {
	host := env.GetEnv("SMTP_HOST", "")
	port := env.GetEnv("SMTP_PORT", "")
	username := env.GetEnv("SMTP_USERNAME", "")
	password := env.GetEnv("SMTP_PASSWORD", "")
	sender := env.GetEnv("SMTP_SENDER", "")

	if sender == "" {
		sender = fmt.Sprintf("no-reply@%s", "localhost")
		log.Printf("SMTP_SENDER not set, using default sender: %s", sender)
	}

	var auth smtp.Auth
	if username != "" && password != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}

	addr := fmt.Sprintf("%s:%s", host, port)

	msg := []byte(
		fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n", sender, to, subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n\r\n" +
			body,
	)

	err := smtp.SendMail(addr, auth, sender, []string{to}, msg)
	if err != nil {
		log.Printf("SMTP send error: %v", err)
		return err
	}

	return nil
}

// SendVerificationMail sends the account verification link to a new user
func SendVerificationMail(to string, verifyURL string) error {
	subject := "Verify your ShopFox account"
	body := fmt.Sprintf(
		"<p>Welcome to ShopFox!</p>"+
			"<p>Please confirm your email address by clicking the link below:</p>"+
			"<p><a href=\"%s\">Verify my account</a></p>"+
			"<p>If you did not sign up, you can ignore this email.</p>",
		verifyURL,
	)

	return SendMail(to, subject, body)
}
