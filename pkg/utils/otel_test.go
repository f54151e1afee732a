// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package utils

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

var otelEnvVars = []string{
	"OTEL_SERVICE_NAME",
	"OTEL_SERVICE_VERSION",
	"OTEL_EXPORTER_OTLP_PROTOCOL",
	"OTEL_EXPORTER_OTLP_ENDPOINT",
	"OTEL_EXPORTER_OTLP_INSECURE",
	"OTEL_TRACES_EXPORTER",
	"OTEL_TRACES_SAMPLE_RATIO",
	"OTEL_METRICS_EXPORTER",
	"OTEL_LOGS_EXPORTER",
}

// clearOTelEnv blanks every OTEL_* variable for the duration of the test.
func clearOTelEnv(t *testing.T) {
	t.Helper()
	for _, name := range otelEnvVars {
		t.Setenv(name, "")
	}
}

func TestOTelConfigFromEnv(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want OTelConfig
	}{
		{
			name: "defaults",
			want: OTelConfig{
				ServiceName:       "lfx-v2-voice-calendar-service",
				Protocol:          OTelProtocolGRPC,
				TracesExporter:    OTelExporterNone,
				TracesSampleRatio: 1.0,
				MetricsExporter:   OTelExporterNone,
				LogsExporter:      OTelExporterNone,
			},
		},
		{
			name: "every variable set",
			env: map[string]string{
				"OTEL_SERVICE_NAME":           "calendar-worker",
				"OTEL_SERVICE_VERSION":        "1.4.0",
				"OTEL_EXPORTER_OTLP_PROTOCOL": "http",
				"OTEL_EXPORTER_OTLP_ENDPOINT": "collector:4318",
				"OTEL_EXPORTER_OTLP_INSECURE": "true",
				"OTEL_TRACES_EXPORTER":        "otlp",
				"OTEL_TRACES_SAMPLE_RATIO":    "0.25",
				"OTEL_METRICS_EXPORTER":       "otlp",
				"OTEL_LOGS_EXPORTER":          "otlp",
			},
			want: OTelConfig{
				ServiceName:       "calendar-worker",
				ServiceVersion:    "1.4.0",
				Protocol:          OTelProtocolHTTP,
				Endpoint:          "collector:4318",
				Insecure:          true,
				TracesExporter:    OTelExporterOTLP,
				TracesSampleRatio: 0.25,
				MetricsExporter:   OTelExporterOTLP,
				LogsExporter:      OTelExporterOTLP,
			},
		},
		{
			name: "unknown protocol falls back to grpc",
			env:  map[string]string{"OTEL_EXPORTER_OTLP_PROTOCOL": "http/json"},
			want: OTelConfig{
				ServiceName:       "lfx-v2-voice-calendar-service",
				Protocol:          OTelProtocolGRPC,
				TracesExporter:    OTelExporterNone,
				TracesSampleRatio: 1.0,
				MetricsExporter:   OTelExporterNone,
				LogsExporter:      OTelExporterNone,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearOTelEnv(t)
			for name, value := range tt.env {
				t.Setenv(name, value)
			}
			assert.Equal(t, tt.want, OTelConfigFromEnv())
		})
	}
}

func TestOTelConfigFromEnv_SampleRatio(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{raw: "", want: 1.0},
		{raw: "0", want: 0},
		{raw: "0.5", want: 0.5},
		{raw: "1", want: 1.0},
		{raw: "1.5", want: 1.0},
		{raw: "-0.1", want: 1.0},
		{raw: "half", want: 1.0},
	}

	for _, tt := range tests {
		t.Run("ratio "+tt.raw, func(t *testing.T) {
			clearOTelEnv(t)
			t.Setenv("OTEL_TRACES_SAMPLE_RATIO", tt.raw)
			assert.InDelta(t, tt.want, OTelConfigFromEnv().TracesSampleRatio, 1e-9)
		})
	}
}

func TestOTelConfigFromEnv_Insecure(t *testing.T) {
	for raw, want := range map[string]bool{"true": true, "false": false, "1": false, "TRUE": false, "": false} {
		t.Run("insecure "+raw, func(t *testing.T) {
			clearOTelEnv(t)
			t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", raw)
			assert.Equal(t, want, OTelConfigFromEnv().Insecure)
		})
	}
}

func TestSetupOTelSDKWithConfig_Disabled(t *testing.T) {
	ctx := context.Background()
	shutdown, err := SetupOTelSDKWithConfig(ctx, OTelConfig{
		ServiceName:     "calendar-test",
		Protocol:        OTelProtocolGRPC,
		TracesExporter:  OTelExporterNone,
		MetricsExporter: OTelExporterNone,
		LogsExporter:    OTelExporterNone,
	})
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	assert.NoError(t, shutdown(ctx))
	assert.NoError(t, shutdown(ctx), "shutdown must be safe to repeat")
}

func TestSetupOTelSDK_FromEnv(t *testing.T) {
	clearOTelEnv(t)

	ctx := context.Background()
	shutdown, err := SetupOTelSDK(ctx)
	require.NoError(t, err)
	assert.NoError(t, shutdown(ctx))
}

func TestNewResource(t *testing.T) {
	res, err := newResource(OTelConfig{ServiceName: "calendar-test", ServiceVersion: "2.0.0"})
	require.NoError(t, err)

	attrs := res.Set()
	name, ok := attrs.Value(semconv.ServiceNameKey)
	require.True(t, ok)
	assert.Equal(t, "calendar-test", name.AsString())

	version, ok := attrs.Value(semconv.ServiceVersionKey)
	require.True(t, ok)
	assert.Equal(t, "2.0.0", version.AsString())

	res, err = newResource(OTelConfig{ServiceName: "calendar-test"})
	require.NoError(t, err)
	_, ok = res.Set().Value(semconv.ServiceVersionKey)
	assert.False(t, ok, "empty version must not be recorded")
}

func TestNewPropagator(t *testing.T) {
	fields := newPropagator().Fields()

	for _, want := range []string{"traceparent", "tracestate", "baggage", "uber-trace-id"} {
		assert.Contains(t, fields, want)
	}
}
