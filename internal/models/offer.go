// internal/models/offer.go
package models

import (
	"fmt"
	"sort"
	"strings"
)

var extraFieldNames = map[string]string{
	"natura":           "Натура",
	"bilok":            "Білок",
	"kleikovina":       "Клейковина",
	"smitteva":         "Сміттєва домішка",
	"vologhist":        "Вологість",
	"sazhkov":          "Сажкові зерна",
	"natura_ya":        "Натура",
	"vologhist_ya":     "Вологість",
	"smitteva_ya":      "Сміттєва домішка",
	"vologhist_k":      "Вологість",
	"zernovadomishka":  "Зернова домішка",
	"poshkodjeni":      "Пошкоджені зерна",
	"smitteva_k":       "Сміттєва домішка",
	"zipsovani":        "Зіпсовані зерна",
	"olijnist_na_suhu": "Олійність на суху",
	"vologhist_son":    "Вологість",
	"smitteva_son":     "Сміттєва домішка",
	"kislotne":         "Кислотне число",
	"olijnist_na_siru": "Олійність на сиру",
	"vologhist_ripak":  "Вологість",
	"glukozinolati":    "Глюкозінолати",
	"smitteva_ripak":   "Сміттєва домішка",
	"bilok_na_siru":    "Білок на сиру",
	"vologhist_soya":   "Вологість",
	"smitteva_soya":    "Сміттєва домішка",
	"olijna_domishka":  "Олійна домішка",
	"ambrizia":         "Амброзія",
}

var currencyNames = map[string]string{
	"dollar": "Долар $",
	"euro":   "Євро €",
	"uah":    "Грн ₴",
}

// ExtraFieldName is the display label for an extra attribute key.
func ExtraFieldName(key string) string {
	if name, ok := extraFieldNames[key]; ok {
		return name
	}
	if key == "" {
		return key
	}
	return strings.ToUpper(key[:1]) + strings.ToLower(key[1:])
}

// CurrencyName is the display label for a currency code; unknown codes pass through.
func CurrencyName(code string) string {
	if name, ok := currencyNames[strings.ToLower(code)]; ok {
		return name
	}
	return code
}

// ExtraLines renders extra attributes as "Label: value", ordered by key.
func ExtraLines(extra map[string]string) []string {
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s: %s", ExtraFieldName(k), extra[k]))
	}
	return lines
}
