// internal/workers/application/send-notification/models.go
package sendnotification

// Input addresses either one recipient or, with toAdmins, every configured admin.
type Input struct {
	Address       string `json:"address,omitempty"`
	ToAdmins      bool   `json:"toAdmins,omitempty"`
	Text          string `json:"text"`
	ApplicationID string `json:"applicationId,omitempty"`
	Kind          string `json:"kind,omitempty"`
}

type Output struct {
	Status     string `json:"status"` // "sent", "failed", "partial"
	Recipients int    `json:"recipients"`
	Failed     int    `json:"failed"`
	SentAt     string `json:"sentAt"`
}

const (
	StatusSent    = "sent"
	StatusFailed  = "failed"
	StatusPartial = "partial"
)
