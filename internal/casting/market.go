package casting

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	IndustryHollywood = "Hollywood"
	IndustryBollywood = "Bollywood"
)

// Market captures the industry-derived prompt context for a job.
type Market struct {
	// Industry is the normalized tag stored on the job.
	Industry string
	// Context is the film industry named in search prompts.
	Context string
	// CurrencySymbol prefixes budget figures in prompts.
	CurrencySymbol string
	// CurrencyInstruction tells the model which unit to report amounts in.
	CurrencyInstruction string
	// CurrencyCode is the ISO code for display formatting.
	CurrencyCode string
}

// NormalizeIndustry trims and title-cases an industry tag, defaulting to
// Hollywood when empty.
func NormalizeIndustry(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return IndustryHollywood
	}
	return cases.Title(language.Und).String(strings.ToLower(trimmed))
}

// MarketFor resolves the currency and search context for an industry tag.
// Only Bollywood switches to rupees; every other tag is treated as Hollywood.
func MarketFor(industry string) Market {
	normalized := NormalizeIndustry(industry)
	if normalized == IndustryBollywood {
		return Market{
			Industry:            normalized,
			Context:             IndustryBollywood,
			CurrencySymbol:      "₹",
			CurrencyInstruction: "in raw INR",
			CurrencyCode:        "INR",
		}
	}
	return Market{
		Industry:            normalized,
		Context:             IndustryHollywood,
		CurrencySymbol:      "$",
		CurrencyInstruction: "in raw USD",
		CurrencyCode:        "USD",
	}
}
