package model

// DeploymentEvent is the inbound record describing a deployment and its current status.
// An empty string means the field was absent in the source payload.
type DeploymentEvent struct {
	EventName        string
	Actor            string
	Deployment       Deployment
	DeploymentStatus DeploymentStatus
	Repository       Repository
}

// Deployment identifies what is being deployed
type Deployment struct {
	SHA           string
	PayloadWebURL string // web_url of the deployment's free-form payload
	Environment   string
}

// DeploymentStatus is a state transition of a deployment
type DeploymentStatus struct {
	State          string
	TargetURL      string
	EnvironmentURL string
	CreatedAt      string // RFC 3339, kept verbatim for fallback text
}

// Repository holds the repository the deployment belongs to
type Repository struct {
	HTMLURL  string
	FullName string
}

// HasDeploymentPayload reports whether both the deployment and its status are present
func (e *DeploymentEvent) HasDeploymentPayload() bool {
	return e.Deployment.SHA != "" && e.DeploymentStatus.State != ""
}
