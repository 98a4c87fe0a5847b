package types

// Version is overwritten at build time via -ldflags
var Version = "dev"

const (
	// ServiceName is reported by the health endpoint and the CLI
	ServiceName = "deploynotify"

	// EventDeploymentStatus is the only GitHub event tag a notification is built for
	EventDeploymentStatus = "deployment_status"
)
