// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package email

import (
	"html/template"
	"testing"
	"time"

	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTemplates(t *testing.T) {
	templates, err := loadTemplates()
	require.NoError(t, err)

	for _, set := range []TemplateSet{templates.Reminder, templates.RecordingStarted, templates.RecordingSummary} {
		assert.NotNil(t, set.HTML)
		assert.NotNil(t, set.Text)
	}
}

func TestRenderReminder(t *testing.T) {
	templates, err := loadTemplates()
	require.NoError(t, err)

	rendered, err := templates.Reminder.render(domain.EmailAppointmentReminder{
		AppointmentTitle: "Standup",
		Description:      "Line one\nLine two",
		StartTime:        time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC),
		Duration:         90,
		MinutesUntil:     5,
		Timezone:         "UTC",
		ConversationURL:  "https://app.example.com/chat/?conversation=c1&appointment_id=a1",
		AutoRecord:       true,
		Links:            []domain.EmailLink{{URL: "https://zoom.us/j/42", Host: "zoom.us"}},
	})
	require.NoError(t, err)

	assert.Contains(t, rendered.HTML, "Standup starts in 5 minutes")
	assert.Contains(t, rendered.HTML, `<a href="https://zoom.us/j/42">zoom.us</a>`)
	assert.Contains(t, rendered.Text, "zoom.us: https://zoom.us/j/42")
	assert.Contains(t, rendered.HTML, "Line one<br>Line two")
	assert.Contains(t, rendered.HTML, "1 hour 30 minutes")
	assert.Contains(t, rendered.HTML, "recorded automatically")
	assert.Contains(t, rendered.Text, "When: Tuesday, March 4th, 10:00 UTC")
	assert.Contains(t, rendered.Text, "Conversation: ")
}

func TestRenderRecordingStarted(t *testing.T) {
	templates, err := loadTemplates()
	require.NoError(t, err)

	rendered, err := templates.RecordingStarted.render(domain.EmailRecordingStarted{
		AppointmentTitle: "Standup",
		StartTime:        time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC),
		EndTime:          time.Date(2025, 3, 4, 10, 30, 0, 0, time.UTC),
		Timezone:         "UTC",
		ConversationURL:  "https://app.example.com/chat/?conversation=c1",
	})
	require.NoError(t, err)

	assert.Contains(t, rendered.HTML, "Recording started for Standup")
	assert.Contains(t, rendered.Text, "https://app.example.com/chat/?conversation=c1")
}

func TestRenderRecordingSummary(t *testing.T) {
	templates, err := loadTemplates()
	require.NoError(t, err)

	t.Run("full analysis", func(t *testing.T) {
		rendered, err := templates.RecordingSummary.render(domain.EmailRecordingSummary{
			AppointmentTitle: "Standup",
			StartTime:        time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC),
			Duration:         30,
			Timezone:         "UTC",
			Summary:          "We agreed on the launch date.",
			Intent:           "planning_session",
			Keywords:         []string{"launch", "date"},
			ActionItems:      []string{"Send the press release"},
			Topics:           []string{"Launch"},
		})
		require.NoError(t, err)

		assert.Contains(t, rendered.HTML, "We agreed on the launch date.")
		assert.Contains(t, rendered.HTML, "Planning session")
		assert.Contains(t, rendered.HTML, "<li>Send the press release</li>")
		assert.Contains(t, rendered.Text, "Keywords: launch, date")
		assert.Contains(t, rendered.Text, "- Send the press release")
	})

	t.Run("missing summary", func(t *testing.T) {
		rendered, err := templates.RecordingSummary.render(domain.EmailRecordingSummary{
			AppointmentTitle: "Standup",
			StartTime:        time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC),
			Duration:         30,
		})
		require.NoError(t, err)

		assert.Contains(t, rendered.Text, "No summary could be generated")
		assert.NotContains(t, rendered.Text, "Intent:")
	})
}

func TestRenderTemplate(t *testing.T) {
	t.Run("successful template rendering", func(t *testing.T) {
		tmpl, err := template.New("test").Parse("Hello {{.Name}}, your value is {{.Value}}")
		require.NoError(t, err)

		content, err := renderTemplate(tmpl, struct {
			Name  string
			Value int
		}{Name: "TestUser", Value: 42})
		require.NoError(t, err)
		assert.Equal(t, "Hello TestUser, your value is 42", content)
	})

	t.Run("invalid template execution", func(t *testing.T) {
		tmpl, err := template.New("test").Parse("Hello {{.Name}}")
		require.NoError(t, err)

		_, err = renderTemplate(tmpl, struct{ Other string }{Other: "x"})
		assert.Error(t, err)
	})
}

func TestFormatTime(t *testing.T) {
	ts := time.Date(2025, 3, 1, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		t        time.Time
		timezone string
		want     string
	}{
		{name: "utc", t: ts, timezone: "UTC", want: "Saturday, March 1st, 14:30 UTC"},
		{name: "empty timezone", t: ts, timezone: "", want: "Saturday, March 1st, 14:30 UTC"},
		{name: "invalid timezone falls back", t: ts, timezone: "Not/AZone", want: "Saturday, March 1st, 14:30 UTC"},
		{name: "teen day suffix", t: ts.AddDate(0, 0, 11), timezone: "UTC", want: "Wednesday, March 12th, 14:30 UTC"},
		{name: "second", t: ts.AddDate(0, 0, 21), timezone: "UTC", want: "Saturday, March 22nd, 14:30 UTC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatTime(tt.t, tt.timezone))
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		minutes int
		want    string
	}{
		{1, "1 minute"},
		{45, "45 minutes"},
		{60, "1 hour"},
		{61, "1 hour 1 minute"},
		{120, "2 hours"},
		{135, "2 hours 15 minutes"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.minutes))
	}
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "", capitalize(""))
	assert.Equal(t, "Planning session", capitalize("planning_session"))
	assert.Equal(t, "Hello", capitalize("HELLO"))
}

func TestNewLineToBreakLine(t *testing.T) {
	assert.Equal(t, template.HTML("a<br>&lt;b&gt;"), newLineToBreakLine("a\n<b>"))
}
