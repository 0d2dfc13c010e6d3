package models

import (
	"path"

	"github.com/kardianos/osext"
)

// AppConfig is the application's main configuration structure
type AppConfig struct {
	// The directory where Turntable stores all of its data - defaults to the /data subdirectory of the folder, the
	// Turntable executable resides in
	DataDir string `json:"dataDir" envconfig:"DATA_DIR"`
	// The credentials for the default DJ account that is created on startup
	DefaultDJ *DefaultDJConfig `json:"defaultDJ" ignored:"true"`
	// The IP address to listen at - including the port number
	ListenAddress string `json:"listenAddress" envconfig:"LISTEN_ADDRESS"`
	// The rejection message used for rate-limited submissions when an event does not configure its own
	DefaultRateLimitMessage string `json:"defaultRateLimitMessage" envconfig:"RATE_LIMIT_MESSAGE"`
}

// The DefaultDJConfig struct configures the default DJ account that can log in
// In a later version, this will be replaced by a full sign-up flow
type DefaultDJConfig struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// GetDefaultConfig returns the default configuration values for the application
func GetDefaultConfig() (*AppConfig, error) {
	execDir, err := osext.ExecutableFolder()
	if err != nil {
		return nil, err
	}
	return &AppConfig{
		DataDir: path.Join(execDir, "data"),
		DefaultDJ: &DefaultDJConfig{
			Email:    "dj@example.com",
			Password: "changeme",
			Name:     "DJ",
		},
		ListenAddress:           ":3000",
		DefaultRateLimitMessage: "You've reached the request limit. Please wait before submitting another song.",
	}, nil
}
