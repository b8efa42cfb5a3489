// internal/workers/application/delete-application/models.go
package deleteapplication

const (
	ModeSoft      = "soft"
	ModePermanent = "permanent"
)

type Input struct {
	ApplicationID string `json:"applicationId"`
	Mode          string `json:"mode"`
	Force         bool   `json:"force,omitempty"`
	Actor         string `json:"actor,omitempty"`
}

type Output struct {
	ApplicationID     string `json:"applicationId"`
	ApplicationStatus string `json:"applicationStatus"`
	LedgerRow         int    `json:"ledgerRow,omitempty"`
	RowsRenumbered    int    `json:"rowsRenumbered"`
}
