package output

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ValidationSeverity indicates the severity of a validation finding.
type ValidationSeverity int

const (
	// SeverityError means Mapnik would reject or misread the style.
	SeverityError ValidationSeverity = iota
	// SeverityWarning means the style loads but is probably not what was meant.
	SeverityWarning
)

// String returns the severity name.
func (s ValidationSeverity) String() string {
	if s == SeverityError {
		return "error"
	}

	return "warning"
}

// ValidationFinding is a single validation issue.
type ValidationFinding struct {
	Severity ValidationSeverity
	Field    string
	Message  string
}

// Error implements the error interface.
func (f *ValidationFinding) Error() string {
	return fmt.Sprintf("[%s] %s: %s", f.Severity, f.Field, f.Message)
}

// ValidationResult holds all findings from a validation run.
type ValidationResult struct {
	Findings []ValidationFinding
}

// Errors returns only error-severity findings.
func (r *ValidationResult) Errors() []ValidationFinding {
	return r.filter(SeverityError)
}

// Warnings returns only warning-severity findings.
func (r *ValidationResult) Warnings() []ValidationFinding {
	return r.filter(SeverityWarning)
}

// HasErrors returns true if any error-severity findings exist.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors()) > 0
}

// Err returns nil when the style has no errors, and otherwise one error
// listing every error finding.
func (r *ValidationResult) Err() error {
	errs := r.Errors()
	if len(errs) == 0 {
		return nil
	}

	msgs := make([]string, len(errs))
	for i := range errs {
		msgs[i] = errs[i].Error()
	}

	return fmt.Errorf("%w: %s", ErrInvalidStyle, strings.Join(msgs, "; "))
}

func (r *ValidationResult) filter(s ValidationSeverity) []ValidationFinding {
	var result []ValidationFinding

	for _, f := range r.Findings {
		if f.Severity == s {
			result = append(result, f)
		}
	}

	return result
}

// ErrInvalidStyle is wrapped by ValidationResult.Err.
var ErrInvalidStyle = errors.New("invalid style")

// styleDoc is the subset of the Mapnik XML schema the validator inspects.
type styleDoc struct {
	Styles []struct {
		Name  string `xml:"name,attr"`
		Rules []struct {
			Max []string `xml:"MaxScaleDenominator"`
			Min []string `xml:"MinScaleDenominator"`
		} `xml:"Rule"`
	} `xml:"Style"`
	Layers []struct {
		Name       string   `xml:"name,attr"`
		StyleNames []string `xml:"StyleName"`
	} `xml:"Layer"`
}

// ValidateStyle checks a rendered Mapnik XML document: it must be
// well-formed with a <Map> root, every rule's scale denominators must be
// positive numbers with max above min, and layers must reference styles
// that exist.
func ValidateStyle(data []byte) *ValidationResult {
	v := &validator{}
	v.validate(data)

	return &v.result
}

type validator struct {
	result ValidationResult
}

func (v *validator) addError(field, msg string) {
	v.result.Findings = append(v.result.Findings, ValidationFinding{
		Severity: SeverityError,
		Field:    field,
		Message:  msg,
	})
}

func (v *validator) addWarning(field, msg string) {
	v.result.Findings = append(v.result.Findings, ValidationFinding{
		Severity: SeverityWarning,
		Field:    field,
		Message:  msg,
	})
}

func (v *validator) validate(data []byte) {
	root, ok := v.validateWellFormed(data)
	if !ok {
		return
	}

	if root != "Map" {
		v.addError("document", fmt.Sprintf("root element is <%s>, expected <Map>", root))
		return
	}

	var doc styleDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		v.addError("document", err.Error())
		return
	}

	styles := v.validateStyles(&doc)
	v.validateLayers(&doc, styles)
}

// validateWellFormed reads every token and returns the root element name.
func (v *validator) validateWellFormed(data []byte) (string, bool) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var root string

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			var syn *xml.SyntaxError
			if errors.As(err, &syn) {
				v.addError(fmt.Sprintf("line %d", syn.Line), syn.Msg)
			} else {
				v.addError("document", err.Error())
			}

			return "", false
		}

		if se, isStart := tok.(xml.StartElement); isStart && root == "" {
			root = se.Name.Local
		}
	}

	if root == "" {
		v.addError("document", "no root element")
		return "", false
	}

	return root, true
}

// validateStyles checks rules and returns the set of defined style names.
func (v *validator) validateStyles(doc *styleDoc) map[string]bool {
	names := make(map[string]bool, len(doc.Styles))

	for i, s := range doc.Styles {
		field := fmt.Sprintf("Style[%d]", i)
		if s.Name != "" {
			field = fmt.Sprintf("Style[%s]", s.Name)
		}

		switch {
		case s.Name == "":
			v.addError(field, "style has no name attribute")
		case names[s.Name]:
			v.addError(field, "duplicate style name")
		default:
			names[s.Name] = true
		}

		if len(s.Rules) == 0 {
			v.addWarning(field, "style has no rules")
		}

		for j, r := range s.Rules {
			ruleField := fmt.Sprintf("%s.Rule[%d]", field, j)

			if len(r.Max) > 1 {
				v.addWarning(ruleField, "more than one MaxScaleDenominator")
			}

			if len(r.Min) > 1 {
				v.addWarning(ruleField, "more than one MinScaleDenominator")
			}

			maxScale, hasMax := v.denominator(ruleField+".MaxScaleDenominator", r.Max)
			minScale, hasMin := v.denominator(ruleField+".MinScaleDenominator", r.Min)

			if hasMax && hasMin && maxScale <= minScale {
				v.addError(ruleField, fmt.Sprintf("MaxScaleDenominator %s is not above MinScaleDenominator %s",
					strconv.FormatFloat(maxScale, 'f', -1, 64), strconv.FormatFloat(minScale, 'f', -1, 64)))
			}
		}
	}

	return names
}

// denominator parses the last value of a scale tag, as Mapnik does when a
// tag is repeated.
func (v *validator) denominator(field string, values []string) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}

	raw := strings.TrimSpace(values[len(values)-1])

	d, err := strconv.ParseFloat(raw, 64)
	if err != nil || d <= 0 {
		v.addError(field, fmt.Sprintf("%q is not a positive number", raw))
		return 0, false
	}

	return d, true
}

func (v *validator) validateLayers(doc *styleDoc, styles map[string]bool) {
	used := make(map[string]bool, len(styles))

	for i, l := range doc.Layers {
		field := fmt.Sprintf("Layer[%d]", i)
		if l.Name != "" {
			field = fmt.Sprintf("Layer[%s]", l.Name)
		}

		if len(l.StyleNames) == 0 {
			v.addWarning(field, "layer references no style")
		}

		for _, name := range l.StyleNames {
			name = strings.TrimSpace(name)
			used[name] = true

			if !styles[name] {
				v.addError(field, fmt.Sprintf("references undefined style %q", name))
			}
		}
	}

	if len(doc.Layers) == 0 {
		return
	}

	for _, s := range doc.Styles {
		if s.Name != "" && !used[s.Name] {
			v.addWarning(fmt.Sprintf("Style[%s]", s.Name), "style is not used by any layer")
		}
	}
}
