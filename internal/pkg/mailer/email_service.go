// FILE: internal/pkg/mailer/email_service.go
package mailer

import (
	"fmt"
	"time"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendSubscriptionActivated(toEmail, planName string, periodEnd *time.Time) error
	SendSubscriptionCanceled(toEmail string) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
	appURL      string
}

func NewEmailService(host string, port int, username, password, senderEmail, appURL string) IEmailService {
	d := gomail.NewDialer(host, port, username, password)

	return &emailService{
		dialer:      d,
		senderEmail: senderEmail,
		appURL:      appURL,
	}
}

func (s *emailService) SendSubscriptionActivated(toEmail, planName string, periodEnd *time.Time) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "Your TextBehind subscription is active")

	renewal := ""
	if periodEnd != nil {
		renewal = fmt.Sprintf("<p>Your plan renews on %s.</p>", periodEnd.Format("January 2, 2006"))
	}

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Welcome to TextBehind %s!</h2>
			<p>Your subscription is now active. All premium limits are unlocked.</p>
			%s
			<a href="%s" style="background-color: #007BFF; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; display: inline-block;">Open the editor</a>
		</div>
	`, planName, renewal, s.appURL)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send activation mail to %s: %v\n", toEmail, err)
		return err
	}

	fmt.Printf("[MAILER] Activation mail sent to %s\n", toEmail)
	return nil
}

func (s *emailService) SendSubscriptionCanceled(toEmail string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "Your TextBehind subscription has ended")

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Sorry to see you go</h2>
			<p>Your subscription has ended and your account is back on the free plan.</p>
			<p>Everything you created stays yours. You can resubscribe anytime:</p>
			<a href="%s/pricing" style="background-color: #007BFF; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; display: inline-block;">View plans</a>
		</div>
	`, s.appURL)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send cancellation mail to %s: %v\n", toEmail, err)
		return err
	}

	fmt.Printf("[MAILER] Cancellation mail sent to %s\n", toEmail)
	return nil
}
