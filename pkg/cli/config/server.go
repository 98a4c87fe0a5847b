package config

import "github.com/urfave/cli/v3"

// Server holds server configuration
type Server struct {
	Addr        string
	WebhookPath string
	Async       bool
}

// Flags returns CLI flags for server configuration
func (c *Server) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Server address",
			Value:       "localhost:8080",
			Destination: &c.Addr,
			Sources:     cli.EnvVars("DEPLOYNOTIFY_ADDR"),
		},
		&cli.StringFlag{
			Name:        "webhook-path",
			Usage:       "Route GitHub webhook deliveries are posted to",
			Value:       "/hooks/github",
			Destination: &c.WebhookPath,
			Sources:     cli.EnvVars("DEPLOYNOTIFY_WEBHOOK_PATH"),
		},
		&cli.BoolFlag{
			Name:        "async",
			Usage:       "Answer webhooks once the message is built and deliver it in the background",
			Destination: &c.Async,
			Sources:     cli.EnvVars("DEPLOYNOTIFY_ASYNC"),
		},
	}
}
