// internal/workers/application/respond-to-proposal/models.go
package respondtoproposal

type Input struct {
	ApplicationID string `json:"applicationId"`
	Action        string `json:"action"` // confirm | reject | wait | delete
	Actor         string `json:"actor,omitempty"`
}

type Output struct {
	ApplicationID     string   `json:"applicationId"`
	ApplicationStatus string   `json:"applicationStatus"`
	Proposal          string   `json:"proposal,omitempty"`
	AvailableActions  []string `json:"availableActions"`
}
