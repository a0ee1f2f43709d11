package conf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSettings() *Settings {
	return &Settings{
		Review: ReviewSettings{ConfidenceThreshold: 0.7},
		Analyzer: AnalyzerSettings{
			Endpoint: "http://0.0.0.0:8000/analyze-zip",
			Timeout:  5 * time.Minute,
		},
		WebServer: WebServerSettings{Enabled: true, Port: "8080"},
	}
}

func TestValidateSettings(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidateSettings(validSettings()))
}

func TestValidateReviewSettings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		threshold float64
		wantErr   bool
	}{
		{"typical threshold", 0.7, false},
		{"low threshold", 0.01, false},
		{"high threshold", 0.99, false},
		{"zero threshold", 0, true},
		{"threshold of one", 1, true},
		{"negative threshold", -0.5, true},
		{"threshold above one", 1.5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			settings := validSettings()
			settings.Review.ConfidenceThreshold = tt.threshold

			err := ValidateSettings(settings)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateAnalyzerSettings(t *testing.T) {
	t.Parallel()

	t.Run("empty endpoint", func(t *testing.T) {
		t.Parallel()

		settings := validSettings()
		settings.Analyzer.Endpoint = ""
		assert.Error(t, ValidateSettings(settings))
	})

	t.Run("non-http scheme", func(t *testing.T) {
		t.Parallel()

		settings := validSettings()
		settings.Analyzer.Endpoint = "ftp://analyzer:8000/analyze-zip"
		assert.Error(t, ValidateSettings(settings))
	})

	t.Run("missing host", func(t *testing.T) {
		t.Parallel()

		settings := validSettings()
		settings.Analyzer.Endpoint = "http:///analyze-zip"
		assert.Error(t, ValidateSettings(settings))
	})

	t.Run("https endpoint", func(t *testing.T) {
		t.Parallel()

		settings := validSettings()
		settings.Analyzer.Endpoint = "https://analyzer.example.com/analyze-zip"
		assert.NoError(t, ValidateSettings(settings))
	})

	t.Run("zero timeout", func(t *testing.T) {
		t.Parallel()

		settings := validSettings()
		settings.Analyzer.Timeout = 0
		assert.Error(t, ValidateSettings(settings))
	})
}

func TestValidateWebServerSettings(t *testing.T) {
	t.Parallel()

	t.Run("invalid port", func(t *testing.T) {
		t.Parallel()

		settings := validSettings()
		settings.WebServer.Port = "not-a-port"
		assert.Error(t, ValidateSettings(settings))
	})

	t.Run("port out of range", func(t *testing.T) {
		t.Parallel()

		settings := validSettings()
		settings.WebServer.Port = "70000"
		assert.Error(t, ValidateSettings(settings))
	})

	t.Run("port ignored when server disabled", func(t *testing.T) {
		t.Parallel()

		settings := validSettings()
		settings.WebServer.Enabled = false
		settings.WebServer.Port = "not-a-port"
		assert.NoError(t, ValidateSettings(settings))
	})
}
