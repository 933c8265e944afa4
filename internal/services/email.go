package services

import (
	"fmt"
	"net/smtp"
	"os"
	"strings"
)

type EmailService struct {
	host     string
	port     string
	user     string
	password string
	from     string
}

func NewEmailService() *EmailService {
	return &EmailService{
		host:     os.Getenv("SMTP_HOST"),
		port:     os.Getenv("SMTP_PORT"),
		user:     os.Getenv("SMTP_USER"),
		password: os.Getenv("SMTP_PASS"),
		from:     os.Getenv("EMAIL_FROM"),
	}
}

func (s *EmailService) SendEmail(to []string, subject, body string) error {
	if s.host == "" || s.port == "" || s.user == "" || s.password == "" {
		return fmt.Errorf("SMTP credentials not fully configured")
	}

	auth := smtp.PlainAuth("", s.user, s.password, s.host)

	message := []byte(fmt.Sprintf("To: %s\r\n"+
		"Subject: %s\r\n"+
		"\r\n"+
		"%s\r\n", strings.Join(to, ", "), subject, body))

	addr := fmt.Sprintf("%s:%s", s.host, s.port)

	if err := smtp.SendMail(addr, auth, s.from, to, message); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

// SendAttendanceWarning notifies a member flagged by the attendance penalty
// evaluator.
func (s *EmailService) SendAttendanceWarning(to, name string, year int, rate, penalty float64) error {
	subject := fmt.Sprintf("Attendance warning for %d", year)
	body := fmt.Sprintf(
		"Dear %s,\n\n"+
			"Your meeting attendance for %d was %.0f%%, below the required 50%%. "+
			"A penalty of %.2f has been added to your pending dues.\n\n"+
			"Please contact the association secretariat if you believe this is in error.\n",
		name, year, rate*100, penalty)
	return s.SendEmail([]string{to}, subject, body)
}

// SendDueReminder notifies a pharmacy owner about an outstanding due.
func (s *EmailService) SendDueReminder(to, pharmacyName, dueTitle string, balance float64, dueDate string) error {
	subject := fmt.Sprintf("Payment reminder: %s", dueTitle)
	body := fmt.Sprintf(
		"An outstanding balance of %.2f remains on %q for %s (due %s).\n"+
			"Kindly submit your payment evidence through the member portal.\n",
		balance, dueTitle, pharmacyName, dueDate)
	return s.SendEmail([]string{to}, subject, body)
}
