package telemetry

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"igold-backend/lib/configutil"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/trace"
)

type providers struct {
	tracerProvider *trace.TracerProvider
	meterProvider  *metric.MeterProvider
}

var active providers

// Shutdown flushes and stops the configured exporters. Safe to call when
// telemetry was never set up.
func Shutdown(ctx context.Context) error {
	var errlist []error
	if active.tracerProvider != nil {
		if err := active.tracerProvider.Shutdown(ctx); err != nil {
			errlist = append(errlist, err)
		}
	}
	if active.meterProvider != nil {
		if err := active.meterProvider.Shutdown(ctx); err != nil {
			errlist = append(errlist, err)
		}
	}
	return errors.Join(errlist...)
}

// SetupFromEnv searches up the filesystem from the cwd for a
// telemetry.json5 file and uses it to configure OTLP export. When no file
// exists, tracing stays on the default no-op providers.
func SetupFromEnv(ctx context.Context, serviceName string) error {
	config, err := configutil.ReadRecursively[config]("telemetry.json5")
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return Setup(ctx, serviceName, config)
}

func Setup(ctx context.Context, serviceName string, config config) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*15)
	defer cancel()

	r, err := newResource(serviceName)
	if err != nil {
		return err
	}

	tracerProvider, err := newTraceProvider(ctx, r, config)
	if err != nil {
		return err
	}
	otel.SetTracerProvider(tracerProvider)

	meterProvider, err := newMetricProvider(ctx, r, config)
	if err != nil {
		return err
	}
	otel.SetMeterProvider(meterProvider)

	active = providers{
		tracerProvider: tracerProvider,
		meterProvider:  meterProvider,
	}
	return nil
}

var setupTestEnvironments = map[string]bool{}

// SetupForTesting initializes logging and telemetry for a test binary,
// ensuring setup happens at most once per service name.
func SetupForTesting(t testing.TB, serviceName string) func() {
	if setupTestEnvironments[serviceName] {
		return func() {}
	}
	setupTestEnvironments[serviceName] = true

	InitSlog(true)
	ctx := context.Background()
	if err := SetupFromEnv(ctx, serviceName); err != nil {
		t.Fatal(err)
	}
	return func() {
		if err := Shutdown(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
}
