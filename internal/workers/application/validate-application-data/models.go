// internal/workers/application/validate-application-data/models.go
package validateapplicationdata

import (
	"offer-ledger/internal/common/validation"
	"offer-ledger/internal/models"
)

type Input struct {
	Offer map[string]interface{} `json:"offer"`
}

// Output always completes the job; the process branches on IsValid.
type Output struct {
	IsValid          bool                         `json:"isValid"`
	Offer            *models.Offer                `json:"offer,omitempty"`
	Preview          string                       `json:"preview,omitempty"`
	ValidationErrors []validation.ValidationError `json:"validationErrors"`
}
