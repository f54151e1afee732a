// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-voice-calendar-service/internal/logging"
	"github.com/nats-io/nats.go/jetstream"
)

// NatsAudioStorage keeps recording audio in a NATS Object Store.
type NatsAudioStorage struct {
	objectStore INatsObjectStore
}

// NewNatsAudioStorage creates an audio storage backed by objectStore.
func NewNatsAudioStorage(objectStore INatsObjectStore) *NatsAudioStorage {
	return &NatsAudioStorage{objectStore: objectStore}
}

// IsReady checks if the storage is ready for use
func (s *NatsAudioStorage) IsReady() bool {
	return s.objectStore != nil
}

// SaveAudio stores data under name and returns the stored size in bytes.
func (s *NatsAudioStorage) SaveAudio(ctx context.Context, name string, data []byte, contentType string) (int64, error) {
	if !s.IsReady() {
		return 0, domain.NewUnavailableError("audio storage is not available")
	}
	if name == "" {
		return 0, domain.NewValidationError("audio object name is required")
	}
	if len(data) == 0 {
		return 0, domain.NewValidationError("audio data is required")
	}

	meta := jetstream.ObjectMeta{
		Name:        name,
		Description: fmt.Sprintf("Recording audio %s", name),
	}
	if contentType != "" {
		meta.Headers = map[string][]string{"Content-Type": {contentType}}
	}

	info, err := s.objectStore.Put(ctx, meta, bytes.NewReader(data))
	if err != nil {
		slog.ErrorContext(ctx, "error putting audio to Object Store",
			logging.ErrKey, err,
			"object_name", name)
		return 0, domain.NewInternalError("failed to store audio", err)
	}

	return int64(info.Size), nil
}

// LoadAudio reads the audio stored under name.
func (s *NatsAudioStorage) LoadAudio(ctx context.Context, name string) ([]byte, error) {
	if !s.IsReady() {
		return nil, domain.NewUnavailableError("audio storage is not available")
	}

	data, err := s.objectStore.GetBytes(ctx, name)
	if err != nil {
		if errors.Is(err, jetstream.ErrObjectNotFound) {
			return nil, domain.NewNotFoundError(fmt.Sprintf("audio %s not found", name), err)
		}
		slog.ErrorContext(ctx, "error getting audio from Object Store",
			logging.ErrKey, err,
			"object_name", name)
		return nil, domain.NewInternalError("failed to read audio", err)
	}

	return data, nil
}

// DeleteAudio removes the audio stored under name. A missing object is not an error.
func (s *NatsAudioStorage) DeleteAudio(ctx context.Context, name string) error {
	if !s.IsReady() {
		return domain.NewUnavailableError("audio storage is not available")
	}

	if err := s.objectStore.Delete(ctx, name); err != nil && !errors.Is(err, jetstream.ErrObjectNotFound) {
		slog.ErrorContext(ctx, "error deleting audio from Object Store",
			logging.ErrKey, err,
			"object_name", name)
		return domain.NewInternalError("failed to delete audio", err)
	}

	return nil
}
