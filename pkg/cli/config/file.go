package config

import (
	"os"
	"strings"

	"github.com/m-mizutani/deploynotify/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
)

// File is the optional TOML configuration file.
//
//	webhook_url     = "https://hooks.slack.com/services/..."
//	states          = ["success", "failure"]
//	validation_mode = "event-type"
type File struct {
	WebhookURL     string   `toml:"webhook_url" masq:"secret"`
	States         []string `toml:"states"`
	ValidationMode string   `toml:"validation_mode"`
}

// LoadFile reads and decodes a TOML configuration file. Unknown keys are rejected.
func LoadFile(path string) (*File, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open config file", goerr.V("path", path))
	}
	defer fd.Close()

	var f File
	dec := toml.NewDecoder(fd).DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, goerr.Wrap(types.ErrInvalidConfig, "failed to decode config file",
			goerr.V("path", path),
			goerr.V("cause", err.Error()),
		)
	}

	return &f, nil
}

// StatesString returns the states as a comma-separated list
func (f *File) StatesString() string {
	return strings.Join(f.States, ",")
}
