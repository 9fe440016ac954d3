package config

import (
	"time"

	"github.com/urfave/cli/v3"
)

type Config struct {
	Client
	HTTP
}

type Client struct {
	BaseURL   string
	OutputDir string
}

type HTTP struct {
	Host         string
	Port         string
	IdleTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// LoadClient reads the uploader command's flags.
func LoadClient(cmd *cli.Command) *Config {
	return &Config{
		Client: Client{
			BaseURL:   cmd.String("base-url"),
			OutputDir: cmd.String("output-dir"),
		},
	}
}

// LoadServer reads the processor command's flags.
func LoadServer(cmd *cli.Command) *Config {
	return &Config{
		HTTP: HTTP{
			Host:         cmd.String("http-host"),
			Port:         cmd.String("http-port"),
			IdleTimeout:  cmd.Duration("http-idle-timeout"),
			ReadTimeout:  cmd.Duration("http-read-timeout"),
			WriteTimeout: cmd.Duration("http-write-timeout"),
		},
	}
}
