// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"
)

//go:embed templates/*
var templateFS embed.FS

// templateConfig names a template file inside the embedded filesystem.
type templateConfig struct {
	name string
	path string
}

// TemplateSet pairs the HTML and text rendering of one email.
type TemplateSet struct {
	HTML *template.Template
	Text *template.Template
}

// Templates holds every email template the service sends.
type Templates struct {
	Reminder         TemplateSet
	RecordingStarted TemplateSet
	RecordingSummary TemplateSet
}

// RenderedEmail holds both HTML and text versions of a rendered email
type RenderedEmail struct {
	HTML string
	Text string
}

// loadTemplates parses every template the service needs.
func loadTemplates() (Templates, error) {
	templateConfigs := map[string]templateConfig{
		"reminderHTML":         {"appointment_reminder.html", "templates/appointment_reminder.html"},
		"reminderText":         {"appointment_reminder.txt", "templates/appointment_reminder.txt"},
		"recordingStartedHTML": {"recording_started.html", "templates/recording_started.html"},
		"recordingStartedText": {"recording_started.txt", "templates/recording_started.txt"},
		"recordingSummaryHTML": {"recording_summary.html", "templates/recording_summary.html"},
		"recordingSummaryText": {"recording_summary.txt", "templates/recording_summary.txt"},
	}

	loaded := make(map[string]*template.Template)
	for key, cfg := range templateConfigs {
		tmpl, err := loadTemplate(cfg)
		if err != nil {
			return Templates{}, err
		}
		loaded[key] = tmpl
	}

	return Templates{
		Reminder: TemplateSet{
			HTML: loaded["reminderHTML"],
			Text: loaded["reminderText"],
		},
		RecordingStarted: TemplateSet{
			HTML: loaded["recordingStartedHTML"],
			Text: loaded["recordingStartedText"],
		},
		RecordingSummary: TemplateSet{
			HTML: loaded["recordingSummaryHTML"],
			Text: loaded["recordingSummaryText"],
		},
	}, nil
}

// render renders both versions of a template set.
func (ts TemplateSet) render(data any) (*RenderedEmail, error) {
	html, err := renderTemplate(ts.HTML, data)
	if err != nil {
		return nil, fmt.Errorf("failed to render HTML template: %w", err)
	}

	text, err := renderTemplate(ts.Text, data)
	if err != nil {
		return nil, fmt.Errorf("failed to render text template: %w", err)
	}

	return &RenderedEmail{HTML: html, Text: text}, nil
}

// loadTemplate loads a single template with the shared function map
func loadTemplate(config templateConfig) (*template.Template, error) {
	tmpl, err := template.New(config.name).Funcs(template.FuncMap{
		"formatTime":         formatTime,
		"formatDuration":     formatDuration,
		"capitalize":         capitalize,
		"newLineToBreakLine": newLineToBreakLine,
	}).ParseFS(templateFS, config.path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s template: %w", config.name, err)
	}
	return tmpl, nil
}

// renderTemplate renders any template with the provided data
func renderTemplate(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	err := tmpl.Execute(&buf, data)
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// formatTime formats a time for display in emails
func formatTime(t time.Time, timezone string) string {
	if timezone == "" {
		timezone = "UTC"
	}

	// Load the timezone
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		// Fall back to UTC if timezone is invalid
		loc = time.UTC
		timezone = "UTC"
	}

	// Convert time to the specified timezone
	localTime := t.In(loc)

	// Format with ordinal day suffix
	day := localTime.Day()
	var suffix string
	switch {
	case day >= 11 && day <= 13:
		suffix = "th"
	case day%10 == 1:
		suffix = "st"
	case day%10 == 2:
		suffix = "nd"
	case day%10 == 3:
		suffix = "rd"
	default:
		suffix = "th"
	}

	// Format: Wednesday, September 15th, 10:30 Africa/Johannesburg
	return fmt.Sprintf("%s, %s %d%s, %s %s",
		localTime.Format("Monday"),
		localTime.Format("January"),
		day,
		suffix,
		localTime.Format("15:04"),
		timezone)
}

// formatDuration formats duration in minutes to a human-readable string
func formatDuration(minutes int) string {
	if minutes < 60 {
		if minutes == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", minutes)
	}

	hours := minutes / 60
	remainingMinutes := minutes % 60

	if remainingMinutes == 0 {
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}

	hourLabel := "hours"
	if hours == 1 {
		hourLabel = "hour"
	}
	minuteLabel := "minutes"
	if remainingMinutes == 1 {
		minuteLabel = "minute"
	}
	return fmt.Sprintf("%d %s %d %s", hours, hourLabel, remainingMinutes, minuteLabel)
}

// capitalize capitalizes the first letter of a string and splits snake case words
func capitalize(s string) string {
	if len(s) == 0 {
		return s
	}
	s = strings.ReplaceAll(s, "_", " ")
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// newLineToBreakLine converts newlines to HTML break tags for proper email formatting
func newLineToBreakLine(s string) template.HTML {
	// Replace newlines with <br> tags
	escaped := template.HTMLEscapeString(s)
	replaced := strings.ReplaceAll(escaped, "\n", "<br>")
	// Return as template.HTML to prevent double escaping
	return template.HTML(replaced)
}
