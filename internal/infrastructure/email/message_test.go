// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package email

import (
	"encoding/base64"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildEmailMessage(t *testing.T) {
	config := SMTPConfig{
		Host:     "localhost",
		Port:     1025,
		From:     "noreply@example.com",
		FromName: "Voice Calendar",
	}

	tests := []struct {
		name        string
		recipient   string
		subject     string
		htmlContent string
		textContent string
	}{
		{
			name:        "reminder email",
			recipient:   "user@example.com",
			subject:     "Reminder: Standup starting in 5 minutes",
			htmlContent: "<h1>Test HTML</h1>",
			textContent: "Test Text",
		},
		{
			name:        "summary email",
			recipient:   "user@example.com",
			subject:     "Recording Complete: Standup",
			htmlContent: "<h1>Summary HTML</h1>",
			textContent: "Summary Text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			message := buildEmailMessage(tt.recipient, tt.subject, tt.htmlContent, tt.textContent, config)

			assert.Contains(t, message, "From: Voice Calendar <noreply@example.com>")
			assert.Contains(t, message, fmt.Sprintf("To: %s", tt.recipient))
			assert.Contains(t, message, fmt.Sprintf("Subject: %s", tt.subject))
			assert.Contains(t, message, "MIME-Version: 1.0")
			assert.Contains(t, message, "Content-Type: multipart/alternative")
			assert.Contains(t, message, "Content-Type: text/plain")
			assert.Contains(t, message, "Content-Type: text/html")
			assert.Contains(t, message, tt.htmlContent)
			assert.Contains(t, message, tt.textContent)
			assert.NotContains(t, message, "multipart/mixed")
		})
	}
}

func TestBuildEmailMessage_WithAttachment(t *testing.T) {
	content := []byte(strings.Repeat("BEGIN:VCALENDAR\r\n", 10))

	message := buildEmailMessage("user@example.com", "Subject", "<p>hi</p>", "hi",
		SMTPConfig{From: "noreply@example.com"},
		attachment{Filename: "appointment.ics", ContentType: "text/calendar", Content: content})

	assert.Contains(t, message, "From: noreply@example.com\r\n")
	assert.Contains(t, message, "Content-Type: multipart/mixed")
	assert.Contains(t, message, "Content-Disposition: attachment; filename=\"appointment.ics\"")
	assert.True(t, strings.HasSuffix(message, fmt.Sprintf("--%s--\r\n", mixedBoundary)))

	encoded := base64.StdEncoding.EncodeToString(content)
	assert.Contains(t, message, encoded[:base64LineLength]+"\r\n")
	for _, line := range strings.Split(message, "\r\n") {
		assert.LessOrEqual(t, len(line), 998)
	}
}

func TestSendEmailMessage(t *testing.T) {
	t.Run("connection error", func(t *testing.T) {
		config := SMTPConfig{
			Host: "127.0.0.1",
			Port: 1,
			From: "noreply@example.com",
		}

		err := sendEmailMessage("user@example.com", "Test message", config)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to send email")
	})

	t.Run("delivered to server", func(t *testing.T) {
		server, err := NewMockSMTPServer()
		if !assert.NoError(t, err) {
			return
		}
		defer func() { _ = server.Close() }()

		config, err := server.Config("noreply@example.com")
		assert.NoError(t, err)

		err = sendEmailMessage("user@example.com", "Subject: hi\r\n\r\nbody\r\n", config)
		assert.NoError(t, err)

		messages := server.Messages()
		if assert.Len(t, messages, 1) {
			assert.Equal(t, "noreply@example.com", messages[0].From)
			assert.Equal(t, []string{"user@example.com"}, messages[0].Recipients)
			assert.Contains(t, messages[0].Data, "body")
		}
	})

	t.Run("rejected sender", func(t *testing.T) {
		server, err := NewMockSMTPServer()
		if !assert.NoError(t, err) {
			return
		}
		defer func() { _ = server.Close() }()
		server.RejectSender = true

		config, err := server.Config("noreply@example.com")
		assert.NoError(t, err)

		err = sendEmailMessage("user@example.com", "Subject: hi\r\n\r\nbody\r\n", config)
		assert.Error(t, err)
		assert.Empty(t, server.Messages())
	})
}
