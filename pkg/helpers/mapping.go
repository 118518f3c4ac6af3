package helpers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/oksasatya/ppob-membership/pkg/mailer"
	mailtpl "github.com/oksasatya/ppob-membership/pkg/mailer/templates"
)

// ErrNoRecipient marks a job that can never be delivered.
var ErrNoRecipient = errors.New("email job has no recipient")

// SubjectFor picks a fallback subject from the job's template name.
func SubjectFor(job mailer.EmailJob) string {
	switch strings.ToLower(job.Template) {
	case mailtpl.Receipt:
		if inv := fmt.Sprintf("%v", job.Data["InvoiceNumber"]); inv != "" && inv != "<nil>" {
			return "Receipt " + inv
		}
		return "Transaction receipt"
	case mailtpl.Welcome:
		return "Welcome"
	default:
		return "Notification"
	}
}

// EnsureRecipient fills Email and RecipientEmail in the template data from To.
func EnsureRecipient(job *mailer.EmailJob) {
	if job.Data == nil {
		job.Data = map[string]any{}
	}
	for _, k := range []string{"Email", "RecipientEmail"} {
		if v, ok := job.Data[k]; !ok || fmt.Sprintf("%v", v) == "" {
			job.Data[k] = job.To
		}
	}
}

// RenderJob resolves the subject and bodies of a queued job. Jobs with a
// template are rendered from the embedded files; others are sent as given.
func RenderJob(job *mailer.EmailJob) (subject, text, html string, err error) {
	job.To = strings.TrimSpace(job.To)
	if job.To == "" {
		return "", "", "", ErrNoRecipient
	}
	EnsureRecipient(job)

	subject, text, html = job.Subject, job.Text, job.HTML
	if job.Template != "" {
		subject, text, html, err = mailtpl.Render(strings.ToLower(job.Template), job.Data)
		if err != nil {
			return "", "", "", fmt.Errorf("render %s: %w", job.Template, err)
		}
	}
	if subject == "" {
		subject = SubjectFor(*job)
	}
	return subject, text, html, nil
}
