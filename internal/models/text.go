package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Dialect is the JIRA REST API version a payload is shaped for
type Dialect int

const (
	// DialectV2 carries description and comment bodies as plain strings
	DialectV2 Dialect = 2
	// DialectV3 carries them as Atlassian Document Format documents
	DialectV3 Dialect = 3
)

// ParseDialect maps a protocol version ("2", "3") to a Dialect
func ParseDialect(version string) (Dialect, error) {
	switch strings.TrimSpace(version) {
	case "2":
		return DialectV2, nil
	case "3":
		return DialectV3, nil
	}
	return 0, fmt.Errorf("unsupported JIRA API version %q", version)
}

// String returns the path segment form ("2", "3")
func (d Dialect) String() string {
	return fmt.Sprintf("%d", int(d))
}

// ADFNode is a node in the Atlassian Document Format tree
type ADFNode struct {
	Type    string                 `json:"type"`
	Text    string                 `json:"text,omitempty"`
	Content []ADFNode              `json:"content,omitempty"`
	Attrs   map[string]interface{} `json:"attrs,omitempty"`
	Marks   []ADFMark              `json:"marks,omitempty"`
}

// ADFMark is an inline formatting mark
type ADFMark struct {
	Type  string                 `json:"type"`
	Attrs map[string]interface{} `json:"attrs,omitempty"`
}

// ADFDocument is the root of a rich-text document: {version, type: "doc", content}
type ADFDocument struct {
	Version int       `json:"version"`
	Type    string    `json:"type"`
	Content []ADFNode `json:"content"`
}

// NewADFDocument wraps text in a single-paragraph document
func NewADFDocument(text string) *ADFDocument {
	return &ADFDocument{
		Version: 1,
		Type:    "doc",
		Content: []ADFNode{{
			Type:    "paragraph",
			Content: []ADFNode{{Type: "text", Text: text}},
		}},
	}
}

// PlainText extracts the text nodes of the document, joined with spaces
func (d *ADFDocument) PlainText() string {
	if d == nil {
		return ""
	}
	parts := make([]string, 0, len(d.Content))
	for _, n := range d.Content {
		if text := n.plainText(); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

func (n ADFNode) plainText() string {
	if n.Type == "text" {
		return n.Text
	}
	parts := make([]string, 0, len(n.Content))
	for _, child := range n.Content {
		if text := child.plainText(); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

func (n ADFNode) clone() ADFNode {
	out := n
	if n.Content != nil {
		out.Content = make([]ADFNode, len(n.Content))
		for i, child := range n.Content {
			out.Content[i] = child.clone()
		}
	}
	out.Attrs = cloneAttrs(n.Attrs)
	if n.Marks != nil {
		out.Marks = make([]ADFMark, len(n.Marks))
		for i, m := range n.Marks {
			out.Marks[i] = ADFMark{Type: m.Type, Attrs: cloneAttrs(m.Attrs)}
		}
	}
	return out
}

func cloneAttrs(attrs map[string]interface{}) map[string]interface{} {
	if attrs == nil {
		return nil
	}
	out := make(map[string]interface{}, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}

// TextKind tags the variant held by a TextValue
type TextKind int

const (
	TextAbsent TextKind = iota
	TextPlain
	TextDocument
)

// TextValue holds a description or comment body: absent, a plain string (v2) or an ADF document (v3).
// Neither the relay nor the mock converts between variants. A decoded document keeps its
// original bytes so it marshals back exactly as it was given.
type TextValue struct {
	kind  TextKind
	plain string
	doc   *ADFDocument
	raw   json.RawMessage
}

// PlainText builds the v2 variant
func PlainText(s string) TextValue {
	return TextValue{kind: TextPlain, plain: s}
}

// RichDocument builds the v3 variant
func RichDocument(doc *ADFDocument) TextValue {
	if doc == nil {
		return TextValue{}
	}
	return TextValue{kind: TextDocument, doc: doc}
}

// TextForDialect shapes text for the given API version
func TextForDialect(d Dialect, text string) TextValue {
	if d == DialectV3 {
		return RichDocument(NewADFDocument(text))
	}
	return PlainText(text)
}

func (v TextValue) Kind() TextKind { return v.kind }

// IsSet reports whether the value holds either variant
func (v TextValue) IsSet() bool { return v.kind != TextAbsent }

// Plain returns the string variant
func (v TextValue) Plain() (string, bool) {
	return v.plain, v.kind == TextPlain
}

// Document returns the ADF variant as a read-only view
func (v TextValue) Document() (*ADFDocument, bool) {
	return v.doc, v.kind == TextDocument
}

// PlainString returns the text content regardless of variant
func (v TextValue) PlainString() string {
	switch v.kind {
	case TextPlain:
		return v.plain
	case TextDocument:
		return v.doc.PlainText()
	}
	return ""
}

// Clone deep-copies the document variant
func (v TextValue) Clone() TextValue {
	if v.kind != TextDocument {
		return v
	}
	doc := &ADFDocument{Version: v.doc.Version, Type: v.doc.Type}
	if v.doc.Content != nil {
		doc.Content = make([]ADFNode, len(v.doc.Content))
		for i, n := range v.doc.Content {
			doc.Content[i] = n.clone()
		}
	}
	out := TextValue{kind: TextDocument, doc: doc}
	if v.raw != nil {
		out.raw = append(json.RawMessage(nil), v.raw...)
	}
	return out
}

func (v TextValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case TextPlain:
		return json.Marshal(v.plain)
	case TextDocument:
		if v.raw != nil {
			return v.raw, nil
		}
		return json.Marshal(v.doc)
	case TextAbsent:
		return []byte("null"), nil
	}
	return nil, fmt.Errorf("unknown text kind %d", v.kind)
}

func (v *TextValue) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*v = TextValue{}
		return nil
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*v = PlainText(s)
		return nil
	case '{':
		var doc ADFDocument
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return fmt.Errorf("invalid document: %w", err)
		}
		var compact bytes.Buffer
		if err := json.Compact(&compact, trimmed); err != nil {
			return fmt.Errorf("invalid document: %w", err)
		}
		*v = TextValue{kind: TextDocument, doc: &doc, raw: compact.Bytes()}
		return nil
	}
	return fmt.Errorf("text value must be a string or a document, got %s", string(trimmed[:1]))
}
