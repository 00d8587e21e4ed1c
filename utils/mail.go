package utils

import (
	"fmt"
	"log"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Mailer delivers one time passwords for password resets.
type Mailer interface {
	SendOTP(email string, otp string) error
}

type SendGridMailer struct {
	client *sendgrid.Client
	from   *mail.Email
}

func NewSendGridMailer(apiKey, from string) *SendGridMailer {
	return &SendGridMailer{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail("todolist support", from),
	}
}

func (m *SendGridMailer) SendOTP(email string, otp string) error {
	subject := "Password Reset Code"
	to := mail.NewEmail("", email)

	plainTextContent := fmt.Sprintf("Your password reset code is: %s", otp)
	htmlContent := fmt.Sprintf("<strong>Your password reset code is: %s</strong>", otp)

	message := mail.NewSingleEmail(m.from, subject, to, plainTextContent, htmlContent)
	response, err := m.client.Send(message)
	if err != nil {
		return fmt.Errorf("sending otp email: %w", err)
	}
	if response.StatusCode >= 300 {
		return fmt.Errorf("sendgrid rejected otp email: status %d: %s", response.StatusCode, response.Body)
	}

	log.Println("OTP email sent to user: ", email)
	return nil
}
