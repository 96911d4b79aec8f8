// Package schema checks the governance documents that carry a declared shape:
// standard metrics and standard data rules. The bundle loaders never call it;
// it backs the validate command.
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/odgs/odgs/bundle"
	"github.com/odgs/odgs/protocol"
)

// unknownItem labels an entry that has no name.
const unknownItem = "Unknown"

var (
	metricRequired   = []string{"metric_id", "name", "domain", "calculation_logic", "owner"}
	dataRuleRequired = []string{"rule_id", "name", "domain", "calculation_logic", "owner"}
)

// Metric is the typed form of one standard metric.
type Metric struct {
	MetricID         string         `json:"metric_id"`
	Name             string         `json:"name"`
	Domain           string         `json:"domain"`
	CalculationLogic map[string]any `json:"calculation_logic"`
	Owner            string         `json:"owner"`
}

// DataRule is the typed form of one standard data rule. CalculationLogic is
// free-form: an expression string or a structured object.
type DataRule struct {
	RuleID           string `json:"rule_id"`
	Name             string `json:"name"`
	Domain           string `json:"domain"`
	CalculationLogic any    `json:"calculation_logic"`
	Owner            string `json:"owner"`
}

// Issue is one problem found in one entry of a document.
type Issue struct {
	Document bundle.Key
	Item     string
	Message  string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %q: %s", i.Document, i.Item, i.Message)
}

// Report summarizes a bundle validation.
type Report struct {
	Metrics   int
	DataRules int
	Issues    []Issue
}

// OK reports whether no issues were found.
func (r Report) OK() bool {
	return len(r.Issues) == 0
}

// ValidateBundle validates every document in b that has a declared shape.
// Documents absent from b are skipped.
func ValidateBundle(b *bundle.Bundle) (Report, error) {
	var rep Report

	if doc, ok := b.Get(protocol.StandardMetrics); ok {
		n, issues, err := validateMetrics(doc)
		if err != nil {
			return rep, err
		}
		rep.Metrics = n
		rep.Issues = append(rep.Issues, issues...)
	}

	if doc, ok := b.Get(protocol.StandardDataRules); ok {
		n, issues, err := validateDataRules(doc)
		if err != nil {
			return rep, err
		}
		rep.DataRules = n
		rep.Issues = append(rep.Issues, issues...)
	}

	return rep, nil
}

// ValidateMetrics checks every entry of a standard metrics document.
func ValidateMetrics(doc *bundle.Document) ([]Issue, error) {
	_, issues, err := validateMetrics(doc)
	return issues, err
}

// ValidateDataRules checks every entry of a standard data rules document.
func ValidateDataRules(doc *bundle.Document) ([]Issue, error) {
	_, issues, err := validateDataRules(doc)
	return issues, err
}

func validateMetrics(doc *bundle.Document) (int, []Issue, error) {
	entries, err := arrayEntries(protocol.StandardMetrics, doc)
	if err != nil {
		return 0, nil, err
	}

	var issues []Issue
	for i, raw := range entries {
		fields, label, err := object(raw, i)
		if err != nil {
			issues = append(issues, Issue{Document: protocol.StandardMetrics, Item: label, Message: err.Error()})
			continue
		}
		for _, msg := range missing(fields, metricRequired) {
			issues = append(issues, Issue{Document: protocol.StandardMetrics, Item: label, Message: msg})
		}

		logicRaw, ok := fields["calculation_logic"]
		if !ok {
			continue
		}
		var logic map[string]json.RawMessage
		if err := json.Unmarshal(logicRaw, &logic); err != nil || logic == nil {
			issues = append(issues, Issue{Document: protocol.StandardMetrics, Item: label,
				Message: "calculation_logic must be an object"})
			continue
		}
		if _, ok := logic["abstract"]; !ok {
			issues = append(issues, Issue{Document: protocol.StandardMetrics, Item: label,
				Message: "calculation_logic missing 'abstract' field"})
		}
	}
	return len(entries), issues, nil
}

func validateDataRules(doc *bundle.Document) (int, []Issue, error) {
	entries, err := arrayEntries(protocol.StandardDataRules, doc)
	if err != nil {
		return 0, nil, err
	}

	var issues []Issue
	for i, raw := range entries {
		fields, label, err := object(raw, i)
		if err != nil {
			issues = append(issues, Issue{Document: protocol.StandardDataRules, Item: label, Message: err.Error()})
			continue
		}
		for _, msg := range missing(fields, dataRuleRequired) {
			issues = append(issues, Issue{Document: protocol.StandardDataRules, Item: label, Message: msg})
		}
	}
	return len(entries), issues, nil
}

// arrayEntries splits an array document into its raw elements.
func arrayEntries(key bundle.Key, doc *bundle.Document) ([]json.RawMessage, error) {
	if doc.Kind() != bundle.KindArray {
		return nil, fmt.Errorf("%s: expected an array, got %s", key, doc.Kind())
	}
	var out []json.RawMessage
	if err := doc.Decode(&out); err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return out, nil
}

// object decodes one entry as a JSON object and returns its label: the name
// field when it is a non-empty string, otherwise "Unknown".
func object(raw json.RawMessage, index int) (map[string]json.RawMessage, string, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return nil, fmt.Sprintf("#%d", index), fmt.Errorf("entry %d is not an object", index)
	}
	label := unknownItem
	if nameRaw, ok := fields["name"]; ok {
		var name string
		if json.Unmarshal(nameRaw, &name) == nil && name != "" {
			label = name
		}
	}
	return fields, label, nil
}

func missing(fields map[string]json.RawMessage, required []string) []string {
	var out []string
	for _, f := range required {
		if _, ok := fields[f]; !ok {
			out = append(out, "Missing required field: "+f)
		}
	}
	return out
}

// DecodeMetrics decodes a standard metrics document into typed entries.
func DecodeMetrics(doc *bundle.Document) ([]Metric, error) {
	var out []Metric
	if err := doc.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", protocol.StandardMetrics, err)
	}
	return out, nil
}

// DecodeDataRules decodes a standard data rules document into typed entries.
func DecodeDataRules(doc *bundle.Document) ([]DataRule, error) {
	var out []DataRule
	if err := doc.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", protocol.StandardDataRules, err)
	}
	return out, nil
}
