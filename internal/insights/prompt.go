package insights

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	promptPersona = "As a senior financial advisor, analyze the following financial data for %d/%d:"
	promptTasks   = "Provide a detailed breakdown of spending, actionable saving tips, identify risk areas, and calculate a financial health score (0-100)."
	promptFormat  = "Return the response in strict JSON format with these exact fields: %s."
)

// BuildPrompt renders the single instruction sent to the model. Transactions
// and budgets are embedded as compact JSON text.
func BuildPrompt(req Request) (string, error) {
	transactions, err := compactJSON(req.Transactions)
	if err != nil {
		return "", fmt.Errorf("insights: encode transactions: %w", err)
	}
	budgets, err := compactJSON(req.Budgets)
	if err != nil {
		return "", fmt.Errorf("insights: encode budgets: %w", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, promptPersona, req.Month, req.Year)
	sb.WriteString("\n\nTransactions:\n")
	sb.WriteString(transactions)
	sb.WriteString("\n\nBudgets:\n")
	sb.WriteString(budgets)
	sb.WriteString("\n\n")
	sb.WriteString(promptTasks)
	sb.WriteString("\n")
	fmt.Fprintf(&sb, promptFormat, outputContract())
	return sb.String(), nil
}

// outputContract lists the response fields as "name (type)" in schema order.
func outputContract() string {
	parts := make([]string, len(responseFields))
	for i, f := range responseFields {
		parts[i] = fmt.Sprintf("%s (%s)", f.name, f.contract)
	}
	if len(parts) < 2 {
		return strings.Join(parts, "")
	}
	return strings.Join(parts[:len(parts)-1], ", ") + ", and " + parts[len(parts)-1]
}

func compactJSON(raw json.RawMessage) (string, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return "", err
	}
	return buf.String(), nil
}
