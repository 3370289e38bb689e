package notify

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/vadymuxd/searching-the-fox-sub001/internal/userjob"
)

// DigestSubject builds the email subject line for a digest of n jobs
func DigestSubject(n int) string {
	if n == 0 {
		return "No New Jobs This Time"
	}
	if n == 1 {
		return "1 New Job Matching Your Criteria"
	}
	return fmt.Sprintf("%d New Jobs Matching Your Criteria", n)
}

// RenderDigest renders the job digest email body as inline-styled HTML
func RenderDigest(jobs []userjob.ListedJob, now time.Time) string {
	var b strings.Builder

	b.WriteString(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"><title>New Job Opportunities</title></head>
<body style="margin: 0; padding: 0; font-family: Arial, sans-serif; background-color: #f8f9fa;">
<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
<div style="background-color: #ffffff; padding: 20px; text-align: center; border-radius: 8px 8px 0 0;">
`)
	b.WriteString(fmt.Sprintf(`<p style="color: #495057; margin: 0; font-size: 14px;">%s available</p>`, jobCountLabel(len(jobs))))
	b.WriteString("\n</div>\n")
	b.WriteString(`<div style="background-color: #ffffff; padding: 10px;">` + "\n")

	if len(jobs) == 0 {
		b.WriteString(`<div style="padding: 40px 20px; text-align: center; color: #868e96;"><p style="margin: 0;">No new jobs found.</p></div>` + "\n")
	} else {
		for _, job := range jobs {
			writeJobCard(&b, job, now)
		}
	}

	b.WriteString(`</div>
<div style="background-color: #f8f9fa; padding: 20px; text-align: center; border-top: 1px solid #e9ecef;">
<p style="margin: 0; font-size: 13px; color: #868e96;">You received this email because you have job alerts enabled.</p>
</div>
</div>
</body>
</html>`)

	return b.String()
}

func jobCountLabel(n int) string {
	if n == 1 {
		return "1 new job"
	}
	return fmt.Sprintf("%d new jobs", n)
}

func writeJobCard(b *strings.Builder, job userjob.ListedJob, now time.Time) {
	b.WriteString(`<div style="background-color: #ffffff; border: 1px solid #e9ecef; border-radius: 8px; padding: 20px; margin-bottom: 15px;">` + "\n")

	b.WriteString(fmt.Sprintf(
		`<h3 style="margin: 0 0 4px 0; font-size: 16px; font-weight: 600; color: #212529;">%s</h3>`,
		html.EscapeString(job.Company),
	))
	if job.Location != "" {
		b.WriteString(fmt.Sprintf(
			`<p style="margin: 0 0 8px 0; font-size: 13px; color: #868e96;">%s</p>`,
			html.EscapeString(job.Location),
		))
	}

	b.WriteString(fmt.Sprintf(
		`<h2 style="margin: 0 0 12px 0; font-size: 20px; font-weight: bold; color: #1971c2;"><a href="%s" target="_blank" rel="noopener noreferrer" style="color: inherit; text-decoration: none;">%s</a></h2>`,
		html.EscapeString(job.JobURL),
		html.EscapeString(job.Title),
	))

	b.WriteString(fmt.Sprintf(
		`<span style="display: inline-block; background-color: #f1f3f5; padding: 4px 10px; border-radius: 4px; margin-right: 8px; font-size: 12px;">%s</span>`,
		postedLabel(job, now),
	))

	if job.SalaryMin != nil && job.SalaryMax != nil {
		currency := job.SalaryCurrency
		if currency == "" {
			currency = "$"
		}
		b.WriteString(fmt.Sprintf(
			`<span style="display: inline-block; color: #2b8a3e; font-size: 13px; font-weight: 500;">%s%.0f - %s%.0f</span>`,
			html.EscapeString(currency), *job.SalaryMin,
			html.EscapeString(currency), *job.SalaryMax,
		))
	}

	b.WriteString("\n</div>\n")
}

// postedLabel formats how long ago a posting appeared, falling back to the
// time the user first saw it when the source gave no posting date
func postedLabel(job userjob.ListedJob, now time.Time) string {
	posted := job.CreatedAt
	if job.DatePosted != nil {
		posted = *job.DatePosted
	}

	today := now.UTC().Truncate(24 * time.Hour)
	day := posted.UTC().Truncate(24 * time.Hour)
	days := int(today.Sub(day).Hours() / 24)

	switch {
	case days <= 0:
		return "Today"
	case days == 1:
		return "Yesterday"
	default:
		return fmt.Sprintf("%d days ago", days)
	}
}
