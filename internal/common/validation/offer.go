// internal/common/validation/offer.go
package validation

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"offer-ledger/internal/models"
)

// DecodeOffer validates a decoded payload against OfferSchema and converts
// it to an Offer. Numeric fields arrive as strings or numbers and are kept as
// strings.
func DecodeOffer(payload map[string]interface{}) (models.Offer, *ValidationResult) {
	res := ValidateOffer(payload)
	if !res.Valid {
		return models.Offer{}, res
	}

	normalized := make(map[string]interface{}, len(payload))
	for k, v := range payload {
		normalized[k] = stringify(v)
	}
	raw, err := json.Marshal(normalized)
	if err != nil {
		return models.Offer{}, invalid(err)
	}
	var offer models.Offer
	if err := json.Unmarshal(raw, &offer); err != nil {
		return models.Offer{}, invalid(err)
	}
	offer.Currency = strings.ToLower(offer.Currency)
	return offer, res
}

func stringify(v interface{}) interface{} {
	switch t := v.(type) {
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, inner := range t {
			out[k] = stringify(inner)
		}
		return out
	default:
		return v
	}
}

func invalid(err error) *ValidationResult {
	return &ValidationResult{Errors: []ValidationError{{Field: "(root)", Message: fmt.Sprintf("decode offer: %v", err), Code: "INVALID_DOCUMENT"}}}
}
