package problem

import "github.com/speakeasy-api/yschema/document"

// FixKind identifies the executor able to apply a fix.
type FixKind string

const (
	FixMissingProperties FixKind = "missing-properties"
	FixReplaceString     FixKind = "replace-string"
)

// Fix is a description of an edit that would resolve a problem. Fixes are
// plain data; applying them is left to the consumer.
type Fix struct {
	Kind  FixKind `json:"kind" yaml:"kind"`
	Title string  `json:"title" yaml:"title"`
	Data  any     `json:"data" yaml:"data"`
}

// MissingPropertiesData describes an insertion of required properties into
// the mapping found at Path.
type MissingPropertiesData struct {
	URI  string   `json:"uri" yaml:"uri"`
	Path []string `json:"path" yaml:"path"`
	// Props are the missing property names, sorted.
	Props   []string `json:"props" yaml:"props"`
	Snippet string   `json:"snippet" yaml:"snippet"`
	// CursorOffset is the position within Snippet where the caret belongs
	// after insertion.
	CursorOffset int `json:"cursorOffset" yaml:"cursorOffset"`
}

// ReplaceStringData describes replacing the text of Region.
type ReplaceStringData struct {
	URI         string          `json:"uri" yaml:"uri"`
	Region      document.Region `json:"region" yaml:"region"`
	Replacement string          `json:"replacement" yaml:"replacement"`
}

// MissingPropertiesFix builds the fix for data.
func MissingPropertiesFix(data MissingPropertiesData) *Fix {
	title := "Add missing property"
	if len(data.Props) > 1 {
		title = "Add missing properties"
	}
	return &Fix{Kind: FixMissingProperties, Title: title, Data: data}
}

// ReplaceStringFix builds a fix replacing region with replacement.
func ReplaceStringFix(title string, data ReplaceStringData) *Fix {
	return &Fix{Kind: FixReplaceString, Title: title, Data: data}
}
