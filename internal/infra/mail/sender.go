package mail

import (
	"fmt"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/wavelead/crm-engine/internal/entity"
)

// EmailSender notifies the operator about failures and overdue campaign
// syncs. Single-tenant deployment: everything goes to one inbox.
type EmailSender struct {
	Host       string
	Port       int
	User       string
	Password   string
	From       string
	OperatorTo string
}

func NewEmailSender(host string, port int, user, password, from, operatorTo string) *EmailSender {
	return &EmailSender{
		Host:       host,
		Port:       port,
		User:       user,
		Password:   password,
		From:       from,
		OperatorTo: operatorTo,
	}
}

func (s *EmailSender) NotifyIngestFailure(userID, uploadType string, cause error) error {
	subject := fmt.Sprintf("Upload failed: %s", uploadType)
	body := fmt.Sprintf(
		"An ingestion run failed and needs attention.\n\n"+
			"Upload type: %s\nUser: %s\nTime: %s\nError: %v\n\n"+
			"The run was recorded as failed; re-uploading the same file is safe.",
		uploadType, userID, time.Now().Format(time.RFC1123), cause,
	)
	return s.send(subject, body)
}

func (s *EmailSender) NotifySyncReminder(c *entity.Campaign) error {
	last := "never"
	if c.LastSyncedDate != nil {
		last = c.LastSyncedDate.Format("2006-01-02")
	}
	subject := fmt.Sprintf("Campaign '%s' needs a results sync", c.CampaignName)
	body := fmt.Sprintf(
		"Campaign '%s' has not had results uploaded recently.\n\n"+
			"Last synced: %s\nReminder frequency: every %d days\n\n"+
			"Upload the latest wasender results file from the Campaigns page.",
		c.CampaignName, last, c.SyncReminderFrequency,
	)
	return s.send(subject, body)
}

func (s *EmailSender) send(subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", s.OperatorTo)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(s.Host, s.Port, s.User, s.Password)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}
	return nil
}
