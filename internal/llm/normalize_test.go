package llm

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/bills-tracker/internal/common"
)

func TestNormalizeInput(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxChars int
		wantErr  bool
	}{
		{name: "empty", text: "", wantErr: true},
		{name: "whitespace only", text: " \n\t  ", wantErr: true},
		{name: "single line", text: "Netflix 199 on the 5th"},
		{name: "multi line kept verbatim", text: "Rent 8500\n  Electricity ~1200 due 15th\n"},
		{name: "at limit", text: strings.Repeat("a", 10), maxChars: 10},
		{name: "over limit", text: strings.Repeat("a", 11), maxChars: 10, wantErr: true},
		{name: "limit counts runes not bytes", text: strings.Repeat("é", 10), maxChars: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeInput(tt.text, tt.maxChars)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, common.ErrValidation))
				var ve *common.ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, "text", ve.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.text, got)
		})
	}
}

func TestNormalizeInput_DefaultLimit(t *testing.T) {
	_, err := NormalizeInput(strings.Repeat("x", DefaultMaxInputChars), 0)
	assert.NoError(t, err)

	_, err = NormalizeInput(strings.Repeat("x", DefaultMaxInputChars+1), 0)
	assert.Error(t, err)
}
