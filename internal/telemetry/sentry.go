// Package telemetry provides privacy-compliant error tracking
package telemetry

import (
	"fmt"
	"log"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/tphakala/camtrap-go/internal/conf"
	"github.com/tphakala/camtrap-go/internal/errors"
)

// flushTimeout bounds how long shutdown waits for buffered events
const flushTimeout = 2 * time.Second

var sentryInitialized bool

// InitSentry initializes the Sentry SDK with privacy-compliant settings.
// Telemetry is strictly opt-in: nothing is sent unless the user enabled it.
func InitSentry(settings *conf.Settings) error {
	if !settings.Sentry.Enabled {
		log.Println("Sentry telemetry is disabled (opt-in required)")
		errors.SetTelemetryReporter(errors.NewSentryReporter(false))
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:        settings.Sentry.DSN,
		SampleRate: 1.0,

		// Privacy-compliant settings
		AttachStacktrace: false,
		Environment:      "production",
		ServerName:       "", // prevent hostname leakage

		Release: fmt.Sprintf("camtrap-go@%s", settings.Version),

		BeforeSend: applyPrivacyFilters,
	})
	if err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}

	sentryInitialized = true
	errors.SetTelemetryReporter(errors.NewSentryReporter(true))

	log.Println("Sentry telemetry initialized")
	return nil
}

// applyPrivacyFilters strips identifying data from an event before it leaves
// the process.
func applyPrivacyFilters(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	event.User = sentry.User{}
	event.ServerName = ""

	if event.Contexts != nil {
		delete(event.Contexts, "device")
		delete(event.Contexts, "os")
		delete(event.Contexts, "runtime")
	}

	for k := range event.Extra {
		if k != "error_type" && k != "component" {
			delete(event.Extra, k)
		}
	}

	if event.Tags != nil {
		delete(event.Tags, "server_name")
		delete(event.Tags, "hostname")
	}

	return event
}

// Flush waits for buffered events to be sent, up to flushTimeout
func Flush() {
	if !sentryInitialized {
		return
	}
	sentry.Flush(flushTimeout)
}
