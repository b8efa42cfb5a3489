// internal/workers/application/file-application/models.go
package fileapplication

type Input struct {
	OwnerID       string                 `json:"ownerId"`
	NotifyAddress string                 `json:"notifyAddress,omitempty"`
	Offer         map[string]interface{} `json:"offer"`
}

type Output struct {
	ApplicationID     string `json:"applicationId"`
	ApplicationStatus string `json:"applicationStatus"`
	LedgerRow         int    `json:"ledgerRow"`
	CreatedAt         string `json:"createdAt"` // ISO 8601
}
