// File: internal/summarizer/budget.go
package summarizer

import "github.com/cadence-health/carebrief/api/schemas"

// Token budget bounds. Budgets are clamped so a sparse bundle still buys a
// usable summary and a sprawling one cannot blow the context window.
const (
	budgetBase        = 1500
	budgetPerResource = 50
	budgetFloor       = 1000
	budgetCeiling     = 4000

	personaFactorPatient   = 0.8
	personaFactorProvider  = 1.2
	personaFactorCaregiver = 1.0
)

// TokenBudget computes the max-output-token budget for one summarize call
// from the bundle's complexity and the target persona. Pure and deterministic;
// missing collections count as zero.
func TokenBudget(persona schemas.Persona, data *schemas.ResourceData) int {
	complexity := 0
	if data != nil {
		complexity = len(data.Conditions) + len(data.Medications) + len(data.LabValues)
	}

	tokens := float64(budgetBase + budgetPerResource*complexity)

	switch persona {
	case schemas.PersonaPatient:
		tokens *= personaFactorPatient
	case schemas.PersonaProvider:
		tokens *= personaFactorProvider
	default:
		tokens *= personaFactorCaregiver
	}

	if tokens < budgetFloor {
		return budgetFloor
	}
	if tokens > budgetCeiling {
		return budgetCeiling
	}
	return int(tokens)
}
