package insights

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ParseResponse decodes model output leniently. The object itself is kept
// for relaying as-is; every field that decodes with the right type is also
// set on the typed fields, and everything else is reported in problems. An
// empty or non-object text yields an empty Response, never a panic.
func ParseResponse(text string) (Response, []string) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Response{}, []string{"empty response"}
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return Response{}, []string{fmt.Sprintf("response is not a JSON object: %v", err)}
	}

	var (
		resp     Response
		problems []string
	)
	if len(raw) > 0 {
		var buf bytes.Buffer
		if err := json.Compact(&buf, []byte(trimmed)); err == nil {
			resp.passthrough = buf.Bytes()
		}
	}
	for _, f := range responseFields {
		value, ok := raw[f.name]
		if !ok || isJSONNull(value) {
			problems = append(problems, f.name+" is missing")
			continue
		}
		if err := decodeField(&resp, f, value); err != nil {
			problems = append(problems, fmt.Sprintf("%s must be %s", f.name, f.contract))
		}
	}
	if resp.HealthScore != nil && !ScoreInRange(*resp.HealthScore) {
		problems = append(problems, fmt.Sprintf("%s %g is outside [%d,%d]", FieldHealthScore, *resp.HealthScore, MinHealthScore, MaxHealthScore))
	}
	return resp, problems
}

// ScoreInRange reports whether score lies within [0,100].
func ScoreInRange(score float64) bool {
	return score >= MinHealthScore && score <= MaxHealthScore
}

func decodeField(resp *Response, f responseField, value json.RawMessage) error {
	switch f.name {
	case FieldBreakdown:
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			return err
		}
		resp.Breakdown = &s
	case FieldSavingTips:
		tips, err := decodeStrings(value)
		if err != nil {
			return err
		}
		resp.SavingTips = tips
	case FieldRiskAreas:
		areas, err := decodeStrings(value)
		if err != nil {
			return err
		}
		resp.RiskAreas = areas
	case FieldHealthScore:
		var n float64
		if err := json.Unmarshal(value, &n); err != nil {
			return err
		}
		resp.HealthScore = &n
	}
	return nil
}

func decodeStrings(value json.RawMessage) ([]string, error) {
	out := []string{}
	if err := json.Unmarshal(value, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func isJSONNull(value json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(value), []byte("null"))
}
