package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"199", 199, true},
		{"R1,200.50", 1200.50, true},
		{"R 8 500", 8500, true},
		{"$99.99", 99.99, true},
		{"199,99", 199.99, true},
		{"1,200", 1200, true},
		{"12,345,678", 12345678, true},
		{"R8.500,00", 8500, true},
		{"1.234.567,89", 1234567.89, true},
		{"12,5", 12.5, true},
		{"1.200.000", 1200000, true},
		{"R99.5", 99.5, true},
		{"1,2345", 0, false},
		{"1.2.3", 0, false},
		{"1,200,50", 0, false},
		{"12.345,6.7", 0, false},
		{"free", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseAmount(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.InDelta(t, tt.want, got, 0.0001)
			}
		})
	}
}

func TestRepairBill(t *testing.T) {
	raw := map[string]any{
		"title":    "  Netflix ",
		"cost":     "R199.00",
		"due_date": "2025-06-05",
		"category": "streaming",
		"notes":    "ignored",
	}
	got, repairs := RepairBill(raw, nil)

	assert.Equal(t, map[string]any{
		"name":      "Netflix",
		"amount":    199.0,
		"dueDate":   "2025-06-05",
		"category":  "Subscriptions",
		"frequency": "monthly",
	}, got)
	assert.NotEmpty(t, repairs)
	assert.Contains(t, raw, "title", "input map must not be modified")
}

func TestRepairBill_AliasPrecedence(t *testing.T) {
	raw := map[string]any{
		"name":     "Rent",
		"amount":   8500.0,
		"date":     "2025-07-01",
		"due":      "2025-06-01",
		"category": "Housing",
	}
	for range 20 {
		got, _ := RepairBill(raw, nil)
		assert.Equal(t, "2025-06-01", got["dueDate"])
		assert.NotContains(t, got, "date")
		assert.NotContains(t, got, "due")
	}
}

func TestRepairBill_EuropeanAmount(t *testing.T) {
	got, _ := RepairBill(map[string]any{"amount": "R8.500,00"}, nil)
	assert.Equal(t, 8500.0, got["amount"])

	got, _ = RepairBill(map[string]any{"amount": "1,2345"}, nil)
	assert.Equal(t, "1,2345", got["amount"], "ambiguous amounts are left for the schema to reject")
}

func TestRepairBill_Frequency(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{name: "missing defaults to monthly", in: nil, want: "monthly"},
		{name: "once", in: "once", want: "one-time"},
		{name: "annual", in: "Annual", want: "yearly"},
		{name: "canonical kept", in: "weekly", want: "weekly"},
		{name: "unknown left for schema", in: "fortnightly", want: "fortnightly"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := map[string]any{"name": "x", "amount": 1.0, "dueDate": "2025-01-01", "category": "Other"}
			if tt.in != nil {
				raw["frequency"] = tt.in
			}
			got, _ := RepairBill(raw, nil)
			assert.Equal(t, tt.want, got["frequency"])
		})
	}
}

func TestRepairBill_NullAndEmpty(t *testing.T) {
	got, _ := RepairBill(map[string]any{
		"name":     "",
		"amount":   nil,
		"dueDate":  nil,
		"category": "  ",
	}, nil)

	assert.NotContains(t, got, "name")
	assert.NotContains(t, got, "amount")
	assert.NotContains(t, got, "dueDate")
	assert.NotContains(t, got, "category")
}

func TestRepairBill_CategoryOutsideVocabulary(t *testing.T) {
	got, _ := RepairBill(map[string]any{"category": "rent"}, []string{"Utilities", "Other"})
	assert.Equal(t, "rent", got["category"], "synonym target not allowed, left for the schema to reject")
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"bills":[]}`, `{"bills":[]}`},
		{"json fence", "```json\n{\"bills\":[]}\n```", `{"bills":[]}`},
		{"bare fence", "```\n{\"bills\":[]}\n```", `{"bills":[]}`},
		{"padded", "  {\"bills\":[]}  \n", `{"bills":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripCodeFences(tt.in))
		})
	}
}
