// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/domain"
)

func TestConversationService_EnsureConversationReuses(t *testing.T) {
	f := newFixture(t)
	appointment := f.createAppointment(t, time.Date(2025, 3, 4, 15, 0, 0, 0, time.UTC), time.Hour)

	first, err := f.conversations.EnsureConversation(f.ctx, appointment.UID)
	require.NoError(t, err)
	assert.Equal(t, "Weekly sync - Mar 04, 2025", first.Title)
	assert.Equal(t, testOwner, first.OwnerEmail)
	assert.Equal(t, appointment.UID, first.AppointmentUID)
	assert.Zero(t, first.TotalMessages)

	for range 2 {
		again, err := f.conversations.EnsureConversation(f.ctx, appointment.UID)
		require.NoError(t, err)
		assert.Equal(t, first.UID, again.UID)
	}

	assert.Len(t, f.conversationKV.Keys(), 1)
	assert.Equal(t, first.UID, f.appointment(t, appointment.UID).ConversationUID)
}

func TestConversationService_EnsureConversationReplacesStaleLink(t *testing.T) {
	f := newFixture(t)
	appointment := f.createAppointment(t, f.now.Add(time.Hour), time.Hour)

	first, err := f.conversations.EnsureConversation(f.ctx, appointment.UID)
	require.NoError(t, err)
	require.NoError(t, f.conversationRepo.DeleteConversation(f.ctx, first.UID))

	second, err := f.conversations.EnsureConversation(f.ctx, appointment.UID)
	require.NoError(t, err)
	assert.NotEqual(t, first.UID, second.UID)
	assert.Equal(t, second.UID, f.appointment(t, appointment.UID).ConversationUID)
	assert.Len(t, f.conversationKV.Keys(), 1)
}

func TestConversationService_EnsureConversationConcurrent(t *testing.T) {
	f := newFixture(t)
	appointment := f.createAppointment(t, f.now.Add(time.Hour), time.Hour)

	const callers = 8
	results := make([]string, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conversation, err := f.conversations.EnsureConversation(f.ctx, appointment.UID)
			if assert.NoError(t, err) {
				results[i] = conversation.UID
			}
		}()
	}
	wg.Wait()

	for _, uid := range results {
		assert.Equal(t, results[0], uid)
	}
	assert.Len(t, f.conversationKV.Keys(), 1)
}

func TestConversationService_EnsureConversationErrors(t *testing.T) {
	t.Run("unknown appointment", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.conversations.EnsureConversation(f.ctx, "missing")
		assert.True(t, domain.IsErrorType(err, domain.ErrorTypeNotFound))
		assert.Empty(t, f.conversationKV.Keys())
	})

	t.Run("empty uid", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.conversations.EnsureConversation(f.ctx, "")
		assert.True(t, domain.IsErrorType(err, domain.ErrorTypeValidation))
	})

	t.Run("link failure discards the new conversation", func(t *testing.T) {
		f := newFixture(t)
		appointment := f.createAppointment(t, f.now.Add(time.Hour), time.Hour)
		f.appointmentKV.UpdateError = errors.New("nats down")

		_, err := f.conversations.EnsureConversation(f.ctx, appointment.UID)
		assert.Error(t, err)
		assert.Empty(t, f.conversationKV.Keys())
	})
}
