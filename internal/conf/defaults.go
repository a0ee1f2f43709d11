// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "CamTrap-Go")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "camtrap.log")
	viper.SetDefault("main.log.rotation", RotationDaily)
	viper.SetDefault("main.log.maxsize", 1048576)
	viper.SetDefault("main.log.rotationday", time.Sunday)

	viper.SetDefault("review.confidencethreshold", 0.7)
	viper.SetDefault("review.log.enabled", true)
	viper.SetDefault("review.log.path", "review.log")
	viper.SetDefault("review.log.rotation", RotationDaily)
	viper.SetDefault("review.log.maxsize", 1048576)

	viper.SetDefault("analyzer.endpoint", "http://0.0.0.0:8000/analyze-zip")
	viper.SetDefault("analyzer.timeout", 5*time.Minute)

	viper.SetDefault("webserver.enabled", true)
	viper.SetDefault("webserver.debug", false)
	viper.SetDefault("webserver.port", "8080")
	viper.SetDefault("webserver.log.enabled", true)
	viper.SetDefault("webserver.log.path", "webui.log")
	viper.SetDefault("webserver.log.rotation", RotationDaily)
	viper.SetDefault("webserver.log.maxsize", 1048576)

	viper.SetDefault("sentry.enabled", false)
	viper.SetDefault("sentry.dsn", "")
}
