package llm

import (
	"fmt"
	"maps"
	"strconv"
	"strings"
	"unicode"

	"github.com/joseph-ayodele/bills-tracker/constants"
)

var billKeys = map[string]struct{}{
	"name": {}, "amount": {}, "dueDate": {}, "category": {}, "frequency": {},
}

// keyAliases maps field names models produce instead of the requested ones. Earlier
// entries win when one object carries several aliases of the same field.
var keyAliases = []struct{ from, to string }{
	{"due_date", "dueDate"},
	{"due", "dueDate"},
	{"date", "dueDate"},
	{"title", "name"},
	{"payee", "name"},
	{"cost", "amount"},
	{"price", "amount"},
}

// RepairBill normalizes one raw bill object before schema validation:
//   - renames known key aliases and removes unknown keys
//   - trims strings and drops null / empty values
//   - coerces numeric strings ("R1,200.50") to numbers
//   - canonicalizes category synonyms onto the allowed vocabulary
//   - defaults a missing frequency to monthly and repairs spellings like "once"
//
// It returns the repaired copy and a list of the repairs applied.
func RepairBill(raw map[string]any, categories []string) (map[string]any, []string) {
	if len(categories) == 0 {
		categories = constants.AsStringSlice()
	}
	m := maps.Clone(raw)
	repairs := make([]string, 0, 4)

	for _, a := range keyAliases {
		if v, ok := m[a.from]; ok {
			if _, exists := m[a.to]; !exists {
				m[a.to] = v
				repairs = append(repairs, a.from+"->"+a.to)
			}
			delete(m, a.from)
		}
	}

	for k := range maps.Clone(m) {
		if _, ok := billKeys[k]; !ok {
			delete(m, k)
			repairs = append(repairs, k+"(unknown)")
		}
	}

	for _, k := range []string{"name", "dueDate", "category", "frequency"} {
		switch v := m[k].(type) {
		case nil:
			if _, present := m[k]; present {
				delete(m, k)
				repairs = append(repairs, k+"(null)")
			}
		case string:
			s := strings.TrimSpace(v)
			if s == "" {
				delete(m, k)
				repairs = append(repairs, k+"(empty)")
			} else {
				m[k] = s
			}
		}
	}

	switch v := m["amount"].(type) {
	case string:
		if f, ok := parseAmount(v); ok {
			m["amount"] = f
			repairs = append(repairs, "amount(string)")
		}
	case nil:
		delete(m, "amount")
	}

	if c, ok := m["category"].(string); ok {
		if canon, found := constants.Canonicalize(c, categories); found && canon != c {
			m["category"] = canon
			repairs = append(repairs, "category("+c+"->"+canon+")")
		}
	}

	if f, ok := m["frequency"].(string); ok {
		if parsed, found := constants.ParseFrequency(f); found && string(parsed) != f {
			m["frequency"] = string(parsed)
			repairs = append(repairs, "frequency("+f+"->"+string(parsed)+")")
		}
	} else if _, present := m["frequency"]; !present {
		m["frequency"] = string(constants.DefaultFrequency)
		repairs = append(repairs, "frequency(default)")
	}

	return m, repairs
}

// parseAmount extracts a number from strings like "R 1,200.50", "$99", "199,99" or
// "R8.500,00". The last separator is the decimal mark when both kinds appear; a lone comma
// is decimal only when one or two digits follow it. Anything that does not group cleanly
// into thousands is rejected rather than guessed.
func parseAmount(s string) (float64, bool) {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) || r == '.' || r == ',' || r == '-' {
			b.WriteRune(r)
		}
	}
	clean := b.String()
	if clean == "" {
		return 0, false
	}

	intPart, frac := clean, ""
	lastDot, lastComma := strings.LastIndex(clean, "."), strings.LastIndex(clean, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		dec, thou := ".", ","
		if lastComma > lastDot {
			dec, thou = ",", "."
		}
		i := strings.LastIndex(clean, dec)
		intPart, frac = clean[:i], clean[i+1:]
		if strings.Contains(intPart, dec) || !thousandsGrouped(intPart, thou) {
			return 0, false
		}
		intPart = strings.ReplaceAll(intPart, thou, "")
	case lastComma >= 0:
		if n := len(clean) - lastComma - 1; strings.Count(clean, ",") == 1 && (n == 1 || n == 2) {
			intPart, frac = clean[:lastComma], clean[lastComma+1:]
		} else if thousandsGrouped(clean, ",") {
			intPart = strings.ReplaceAll(clean, ",", "")
		} else {
			return 0, false
		}
	case strings.Count(clean, ".") > 1:
		if !thousandsGrouped(clean, ".") {
			return 0, false
		}
		intPart = strings.ReplaceAll(clean, ".", "")
	case lastDot >= 0:
		intPart, frac = clean[:lastDot], clean[lastDot+1:]
	}

	num := intPart
	if frac != "" {
		num += "." + frac
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// thousandsGrouped reports whether s is digits separated by sep into a leading group of one
// to three digits followed by groups of exactly three.
func thousandsGrouped(s, sep string) bool {
	groups := strings.Split(strings.TrimPrefix(s, "-"), sep)
	for i, g := range groups {
		if strings.ContainsFunc(g, func(r rune) bool { return !unicode.IsDigit(r) }) {
			return false
		}
		if (i == 0 && (len(g) < 1 || len(g) > 3)) || (i > 0 && len(g) != 3) {
			return false
		}
	}
	return true
}

// stripCodeFences removes a surrounding ```json ... ``` block some models emit even in JSON mode.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// drop the language tag line
		if tag := strings.TrimSpace(s[:nl]); !strings.ContainsAny(tag, "{[") {
			s = s[nl+1:]
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func describeValue(v any) string {
	s := fmt.Sprintf("%v", v)
	if len(s) > 80 {
		return s[:80] + "..."
	}
	return s
}
