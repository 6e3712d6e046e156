package models

import "time"

// DefaultDeploymentMethod is reported when no deployment label is configured.
const DefaultDeploymentMethod = "Unknown"

// ProbeResult is the body of every probe response. It is built per request
// and never stored.
type ProbeResult struct {
	CurrentDate      string `json:"currentDate"`
	Status           string `json:"status"`
	DeploymentMethod string `json:"deploymentMethod"`
}

// NewProbeResult stamps a result with now rendered in layout. An empty
// deployment method falls back to DefaultDeploymentMethod.
func NewProbeResult(now time.Time, layout, status, deploymentMethod string) ProbeResult {
	if deploymentMethod == "" {
		deploymentMethod = DefaultDeploymentMethod
	}
	if layout == "" {
		layout = DefaultDateLayout
	}
	return ProbeResult{
		CurrentDate:      now.Format(layout),
		Status:           status,
		DeploymentMethod: deploymentMethod,
	}
}
