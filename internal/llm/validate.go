package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/bills-tracker/constants"
	"github.com/joseph-ayodele/bills-tracker/internal/common"
)

// Validator turns raw completion text into bill candidates.
type Validator struct {
	schema     *jsonschema.Schema
	categories []string
	policy     string
	logger     *slog.Logger
}

// NewValidator compiles the bill schema for the given vocabulary. policy is common.PolicyDrop
// (invalid elements are skipped) or common.PolicyStrict (any invalid element rejects the response).
func NewValidator(categories []string, policy string, logger *slog.Logger) (*Validator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(categories) == 0 {
		categories = constants.AsStringSlice()
	}
	if policy == "" {
		policy = common.PolicyDrop
	}
	if policy != common.PolicyDrop && policy != common.PolicyStrict {
		return nil, fmt.Errorf("unknown validation policy %q", policy)
	}
	schema, err := CompileSchema(BuildBillJSONSchema(categories))
	if err != nil {
		return nil, err
	}
	return &Validator{schema: schema, categories: categories, policy: policy, logger: logger}, nil
}

// ParseBills parses raw model output. An empty result is not an error.
func (v *Validator) ParseBills(raw string) ([]ParsedBill, error) {
	content := stripCodeFences(raw)

	var doc any
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		v.logger.Error("llm.validate.invalid_json", "error", err, "content", content)
		return nil, &common.MalformedResponseError{Reason: common.ReasonInvalidJSON, Cause: err}
	}

	obj, ok := doc.(map[string]any)
	if !ok {
		v.logger.Error("llm.validate.missing_bills", "content", content)
		return nil, &common.MalformedResponseError{Reason: common.ReasonMissingBills}
	}
	items, ok := obj["bills"].([]any)
	if !ok {
		v.logger.Error("llm.validate.missing_bills", "content", content)
		return nil, &common.MalformedResponseError{Reason: common.ReasonMissingBills}
	}

	out := make([]ParsedBill, 0, len(items))
	for i, item := range items {
		bill, err := v.validateItem(item)
		if err != nil {
			if v.policy == common.PolicyStrict {
				v.logger.Error("llm.validate.item_rejected", "position", i, "error", err, "policy", v.policy)
				return nil, &common.MalformedResponseError{Reason: common.ReasonInvalidRecord, Cause: err}
			}
			v.logger.Warn("llm.validate.item_dropped", "position", i, "error", err, "item", describeValue(item))
			continue
		}
		bill.Index = len(out)
		out = append(out, bill)
	}

	v.logger.Info("llm.validate.ok", "received", len(items), "accepted", len(out))
	return out, nil
}

func (v *Validator) validateItem(item any) (ParsedBill, error) {
	m, ok := item.(map[string]any)
	if !ok {
		return ParsedBill{}, fmt.Errorf("bill is %T, not an object", item)
	}

	repaired, repairs := RepairBill(m, v.categories)
	if len(repairs) > 0 {
		v.logger.Debug("llm.validate.repaired", "repairs", repairs)
	}

	if err := v.schema.Validate(repaired); err != nil {
		return ParsedBill{}, fmt.Errorf("schema: %w", err)
	}

	due := repaired["dueDate"].(string)
	if _, err := time.Parse(constants.DateLayout, due); err != nil {
		return ParsedBill{}, fmt.Errorf("dueDate %q is not a calendar date", due)
	}

	return ParsedBill{
		Name:      repaired["name"].(string),
		Amount:    repaired["amount"].(float64),
		DueDate:   due,
		Category:  repaired["category"].(string),
		Frequency: repaired["frequency"].(string),
	}, nil
}
