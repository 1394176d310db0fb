package llm

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/bills-tracker/internal/common"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestValidator(t *testing.T, policy string) *Validator {
	t.Helper()
	v, err := NewValidator(nil, policy, quietLogger())
	require.NoError(t, err)
	return v
}

func TestValidator_ParseBills(t *testing.T) {
	v := newTestValidator(t, common.PolicyDrop)

	raw := `{"bills":[
		{"name":"Rent","amount":8500,"dueDate":"2025-06-01","category":"Housing","frequency":"monthly"},
		{"name":"Netflix","amount":199,"dueDate":"2025-06-05","category":"Subscriptions","frequency":"monthly"}
	]}`
	bills, err := v.ParseBills(raw)
	require.NoError(t, err)
	require.Len(t, bills, 2)

	assert.Equal(t, ParsedBill{Index: 0, Name: "Rent", Amount: 8500, DueDate: "2025-06-01", Category: "Housing", Frequency: "monthly"}, bills[0])
	assert.Equal(t, 1, bills[1].Index)
	assert.Equal(t, "Netflix", bills[1].Name)
}

func TestValidator_EmptyBills(t *testing.T) {
	v := newTestValidator(t, common.PolicyDrop)
	bills, err := v.ParseBills(`{"bills":[]}`)
	require.NoError(t, err)
	assert.Empty(t, bills)
}

func TestValidator_MalformedResponses(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		reason string
	}{
		{name: "not json", raw: "Sure! Here are your bills:", reason: common.ReasonInvalidJSON},
		{name: "truncated json", raw: `{"bills":[{"name":"Rent"`, reason: common.ReasonInvalidJSON},
		{name: "missing bills key", raw: `{"items":[]}`, reason: common.ReasonMissingBills},
		{name: "bills not an array", raw: `{"bills":"none"}`, reason: common.ReasonMissingBills},
		{name: "bills null", raw: `{"bills":null}`, reason: common.ReasonMissingBills},
		{name: "top level array", raw: `[{"name":"Rent"}]`, reason: common.ReasonMissingBills},
	}
	v := newTestValidator(t, common.PolicyDrop)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.ParseBills(tt.raw)
			var mf *common.MalformedResponseError
			require.ErrorAs(t, err, &mf)
			assert.Equal(t, tt.reason, mf.Reason)
			assert.True(t, common.IsExtractionFailure(err))
		})
	}
}

func TestValidator_DropPolicyKeepsValidItems(t *testing.T) {
	valid := []string{
		`{"name":"Rent","amount":8500,"dueDate":"2025-06-01","category":"Housing","frequency":"monthly"}`,
		`{"name":"Netflix","amount":199,"dueDate":"2025-06-05","category":"Subscriptions","frequency":"monthly"}`,
		`{"name":"Gym","amount":450,"dueDate":"2025-06-10","category":"Subscriptions","frequency":"monthly"}`,
	}
	malformed := []string{
		`{"name":"Mystery","dueDate":"2025-06-01","category":"Other","frequency":"monthly"}`,
		`{"name":"Negative","amount":-5,"dueDate":"2025-06-01","category":"Other","frequency":"monthly"}`,
		`{"name":"BadDate","amount":10,"dueDate":"2025-02-30","category":"Other","frequency":"monthly"}`,
		`{"name":"BadCategory","amount":10,"dueDate":"2025-06-01","category":"Pets","frequency":"monthly"}`,
		`"just a string"`,
		`{"name":"Zero","amount":0,"dueDate":"2025-06-01","category":"Other","frequency":"monthly"}`,
		`{"name":"Ambiguous","amount":"1,2345","dueDate":"2025-06-01","category":"Other","frequency":"monthly"}`,
	}
	items := []string{valid[0], malformed[0], malformed[1], valid[1], malformed[2], malformed[3], malformed[4], malformed[5], malformed[6], valid[2]}
	raw := fmt.Sprintf(`{"bills":[%s]}`, strings.Join(items, ","))

	v := newTestValidator(t, common.PolicyDrop)
	bills, err := v.ParseBills(raw)
	require.NoError(t, err)
	require.Len(t, bills, len(valid))

	names := make([]string, 0, len(bills))
	for i, b := range bills {
		assert.Equal(t, i, b.Index, "indices are contiguous over survivors")
		names = append(names, b.Name)
	}
	assert.Equal(t, []string{"Rent", "Netflix", "Gym"}, names)
}

func TestValidator_StrictPolicyRejects(t *testing.T) {
	raw := `{"bills":[
		{"name":"Rent","amount":8500,"dueDate":"2025-06-01","category":"Housing","frequency":"monthly"},
		{"name":"Mystery","dueDate":"2025-06-01","category":"Other"}
	]}`
	v := newTestValidator(t, common.PolicyStrict)
	_, err := v.ParseBills(raw)

	var mf *common.MalformedResponseError
	require.ErrorAs(t, err, &mf)
	assert.Equal(t, common.ReasonInvalidRecord, mf.Reason)
}

func TestValidator_RepairsBeforeValidation(t *testing.T) {
	raw := "```json\n" + `{"bills":[{"name":"Electricity","amount":"R1,200.50","due_date":"2025-06-15","category":"electricity"}]}` + "\n```"
	v := newTestValidator(t, common.PolicyStrict)

	bills, err := v.ParseBills(raw)
	require.NoError(t, err)
	require.Len(t, bills, 1)
	assert.Equal(t, ParsedBill{Name: "Electricity", Amount: 1200.50, DueDate: "2025-06-15", Category: "Utilities", Frequency: "monthly"}, bills[0])
}

func TestNewValidator_UnknownPolicy(t *testing.T) {
	_, err := NewValidator(nil, "lenient", quietLogger())
	assert.Error(t, err)
}
