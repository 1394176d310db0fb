package llm

import "context"

// ParsedBill is a bill candidate extracted from free text. It is never persisted directly.
type ParsedBill struct {
	Index     int     `json:"index"`
	Name      string  `json:"name"`
	Amount    float64 `json:"amount"`
	DueDate   string  `json:"dueDate"` // YYYY-MM-DD
	Category  string  `json:"category"`
	Frequency string  `json:"frequency"`
}

// CompletionRequest is a provider-neutral chat completion call.
type CompletionRequest struct {
	System      string
	User        string
	Temperature float32
	MaxTokens   int
	JSONMode    bool
}

// Completer is the outbound completion service. Implementations return the raw text of the
// first completion, an *common.UpstreamError on a non-success status, or an
// *common.EmptyResponseError when the service returns no content.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	Name() string
}

// BillExtractor turns pasted text into validated candidates.
type BillExtractor interface {
	ExtractBills(ctx context.Context, text string) ([]ParsedBill, error)
}
