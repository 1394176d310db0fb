package llm

import (
	"strings"
	"time"

	"github.com/joseph-ayodele/bills-tracker/constants"
)

// PromptVersion is logged with every extraction so outputs can be traced to the instructions
// that produced them.
const PromptVersion = "bills-v1"

// PromptParams are the inputs to the system instruction.
type PromptParams struct {
	Categories      []string
	FallbackDueDate time.Time
}

// BuildSystemPrompt composes the system message: allowed categories, the fallback due date,
// formatting rules and the exact output shape.
func BuildSystemPrompt(p PromptParams) string {
	categories := p.Categories
	if len(categories) == 0 {
		categories = constants.AsStringSlice()
	}
	fallback := p.FallbackDueDate.Format(constants.DateLayout)

	parts := []string{
		"You are an expert at parsing unstructured text and extracting financial bill information.",
		"Extract every bill from the provided text and return it as valid JSON.",
		"",
		"IMPORTANT INSTRUCTIONS:",
		"- Available categories: " + strings.Join(categories, ", ") + ". Use exactly one of these; if uncertain, use 'Other'.",
		"- Category rubric: " + buildCategoryRubric(categories),
		"- If no due date is mentioned, set it to " + fallback + " (last day of current month)",
		"- If only a day of the month is mentioned, use that day in the current month",
		"- Convert amounts to numbers (remove currency symbols and thousands separators)",
		"- Dates must be in YYYY-MM-DD format",
		"- Frequency must be one of: " + strings.Join(constants.FrequenciesAsStringSlice(), ", ") + ". If frequency isn't specified, assume 'monthly'",
		"- Only extract bills that have both a name and amount",
		`- Return exactly this JSON structure: { "bills": [{ "name": string, "amount": number, "dueDate": string, "category": string, "frequency": string }] }`,
		"- Never output null. If no bills are found, return { \"bills\": [] }",
		"",
		"Example output:",
		exampleOutput(p.FallbackDueDate),
	}
	return strings.Join(parts, "\n")
}

// BuildUserPrompt returns the pasted text unchanged.
func BuildUserPrompt(text string) string {
	return text
}

// LastDayOfMonth returns the final calendar day of t's month, in t's location.
func LastDayOfMonth(t time.Time) time.Time {
	firstOfNext := time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, t.Location())
	return firstOfNext.AddDate(0, 0, -1)
}

func exampleOutput(ref time.Time) string {
	day5 := time.Date(ref.Year(), ref.Month(), 5, 0, 0, 0, 0, ref.Location())
	return `{
  "bills": [
    {
      "name": "Netflix",
      "amount": 199,
      "dueDate": "` + day5.Format(constants.DateLayout) + `",
      "category": "Subscriptions",
      "frequency": "monthly"
    }
  ]
}`
}

// buildCategoryRubric emits short rules only for categories present in the vocabulary.
func buildCategoryRubric(allowed []string) string {
	defs := map[string]string{
		string(constants.Housing):        "rent, mortgage, levies, rates",
		string(constants.Utilities):      "electricity, water, gas, internet, phone contracts",
		string(constants.Transportation): "car payments, fuel, tolls, public transport passes",
		string(constants.Groceries):      "food and household shopping",
		string(constants.Subscriptions):  "streaming, software, gym and other recurring memberships",
		string(constants.Insurance):      "car, home, life and medical cover premiums",
		string(constants.Loans):          "personal, student and vehicle finance repayments",
		string(constants.CreditCards):    "credit card and store card repayments",
		string(constants.Medical):        "doctor, pharmacy and medical aid payments",
		string(constants.Entertainment):  "events, outings, hobbies",
	}

	var parts []string
	for _, c := range allowed {
		if d, ok := defs[c]; ok {
			parts = append(parts, c+": "+d)
		}
	}
	if len(parts) == 0 {
		return "pick the closest category; if uncertain, choose 'Other'."
	}
	return strings.Join(parts, " | ")
}
