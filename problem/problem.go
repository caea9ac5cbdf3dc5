// Package problem defines the diagnostics produced by schema reconciliation
// and the fix-data payloads some of them carry.
package problem

import (
	"fmt"
	"strings"

	"github.com/speakeasy-api/yschema/document"
)

// Severity ranks how serious a problem is.
type Severity int

const (
	SeverityIgnore Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityIgnore:
		return "ignore"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// ParseSeverity is the inverse of Severity.String.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(s) {
	case "ignore":
		return SeverityIgnore, nil
	case "info":
		return SeverityInfo, nil
	case "warning", "warn":
		return SeverityWarning, nil
	case "error":
		return SeverityError, nil
	default:
		return SeverityIgnore, fmt.Errorf("unknown severity %q", s)
	}
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(text []byte) error {
	v, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Type classifies a problem. Each type carries the severity used unless a
// caller overrides it.
type Type struct {
	Code            string
	DefaultSeverity Severity
}

func (t Type) String() string { return t.Code }

func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.Code), nil
}

func (t *Type) UnmarshalText(text []byte) error {
	for _, known := range Types {
		if known.Code == string(text) {
			*t = known
			return nil
		}
	}
	return fmt.Errorf("unknown problem type %q", text)
}

var (
	Syntax             = Type{Code: "YAML_SYNTAX_ERROR", DefaultSeverity: SeverityError}
	SchemaProblem      = Type{Code: "YAML_SCHEMA_PROBLEM", DefaultSeverity: SeverityError}
	MissingProperty    = Type{Code: "YAML_MISSING_PROPERTY", DefaultSeverity: SeverityError}
	UnknownProperty    = Type{Code: "YAML_UNKNOWN_PROPERTY", DefaultSeverity: SeverityError}
	DeprecatedProperty = Type{Code: "YAML_DEPRECATED_PROPERTY", DefaultSeverity: SeverityWarning}
	DeprecatedValue    = Type{Code: "YAML_DEPRECATED_VALUE", DefaultSeverity: SeverityWarning}
	ValueParse         = Type{Code: "YAML_VALUE_PARSE_ERROR", DefaultSeverity: SeverityError}
	DuplicateKey       = Type{Code: "YAML_DUPLICATE_KEY", DefaultSeverity: SeverityError}
	EmptyOptionalValue = Type{Code: "YAML_EMPTY_OPTIONAL_VALUE", DefaultSeverity: SeverityWarning}
	PropertyConstraint = Type{Code: "YAML_PROPERTY_CONSTRAINT", DefaultSeverity: SeverityError}
)

// Types lists every known problem type.
var Types = []Type{
	Syntax,
	SchemaProblem,
	MissingProperty,
	UnknownProperty,
	DeprecatedProperty,
	DeprecatedValue,
	ValueParse,
	DuplicateKey,
	EmptyOptionalValue,
	PropertyConstraint,
}

// Problem is a single diagnostic anchored to a document region.
type Problem struct {
	Type     Type            `json:"type" yaml:"type"`
	Message  string          `json:"message" yaml:"message"`
	Region   document.Region `json:"region" yaml:"region"`
	Severity Severity        `json:"severity" yaml:"severity"`
	Fix      *Fix            `json:"fix,omitempty" yaml:"fix,omitempty"`
}

// New creates a problem with the type's default severity.
func New(t Type, message string, region document.Region) Problem {
	return Problem{
		Type:     t,
		Message:  message,
		Region:   region,
		Severity: t.DefaultSeverity,
	}
}

// WithFix returns a copy of p carrying fix.
func (p Problem) WithFix(fix *Fix) Problem {
	p.Fix = fix
	return p
}

func (p Problem) String() string {
	return fmt.Sprintf("%s@%s: %s", p.Type.Code, p.Region, p.Message)
}

// HasErrors reports whether any problem has error severity.
func HasErrors(problems []Problem) bool {
	for _, p := range problems {
		if p.Severity >= SeverityError {
			return true
		}
	}
	return false
}
