// conf/validate.go settings validation
package conf

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/tphakala/camtrap-go/internal/errors"
)

// ValidateSettings checks the loaded settings for invalid or inconsistent
// values. It is called by Load before the settings instance is installed,
// so a failed validation never replaces a previously working configuration.
func ValidateSettings(settings *Settings) error {
	if err := validateReviewSettings(&settings.Review); err != nil {
		return err
	}

	if err := validateAnalyzerSettings(&settings.Analyzer); err != nil {
		return err
	}

	if err := validateWebServerSettings(&settings.WebServer); err != nil {
		return err
	}

	return nil
}

// validateReviewSettings validates the triage threshold. The threshold is an
// open interval: a threshold of 0 would send nothing to review, a threshold
// of 1 would also auto-accept items scored exactly 1.0, both are operator
// mistakes rather than useful configurations.
func validateReviewSettings(review *ReviewSettings) error {
	if review.ConfidenceThreshold <= 0 || review.ConfidenceThreshold >= 1 {
		return errors.Newf("review confidence threshold must be between 0 and 1 exclusive, got %f", review.ConfidenceThreshold).
			Category(errors.CategoryConfiguration).
			Context("threshold", review.ConfidenceThreshold).
			Build()
	}
	return nil
}

// validateAnalyzerSettings validates the remote inference service settings.
func validateAnalyzerSettings(analyzer *AnalyzerSettings) error {
	if analyzer.Endpoint == "" {
		return errors.Newf("analyzer endpoint must not be empty").
			Category(errors.CategoryConfiguration).
			Context("setting", "analyzer.endpoint").
			Build()
	}

	parsed, err := url.Parse(analyzer.Endpoint)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return errors.Newf("analyzer endpoint must be a valid http(s) URL, got %q", analyzer.Endpoint).
			Category(errors.CategoryConfiguration).
			Context("setting", "analyzer.endpoint").
			Build()
	}

	if analyzer.Timeout <= 0 {
		return errors.Newf("analyzer timeout must be positive, got %s", analyzer.Timeout).
			Category(errors.CategoryConfiguration).
			Context("setting", "analyzer.timeout").
			Build()
	}

	return nil
}

// validateWebServerSettings validates the web server settings.
func validateWebServerSettings(webserver *WebServerSettings) error {
	if !webserver.Enabled {
		return nil
	}

	port := strings.TrimSpace(webserver.Port)
	portNum, err := strconv.Atoi(port)
	if err != nil || portNum < 1 || portNum > 65535 {
		return errors.Newf("web server port must be a number between 1 and 65535, got %q", webserver.Port).
			Category(errors.CategoryConfiguration).
			Context("setting", "webserver.port").
			Build()
	}

	return nil
}
