// Package schema parses the flat schema corpus format produced by the
// export tooling: CREATE TABLE statements separated by a literal "&" line,
// each optionally preceded by a free-text description.
package schema

import (
	"regexp"
	"strings"
)

// CorpusDelimiter separates table documents in an exported corpus file.
const CorpusDelimiter = "&"

// descriptionMarker splits an optional description prefix from the DDL.
const descriptionMarker = "Schema:\n"

var (
	createTableRe = regexp.MustCompile(`(?i)CREATE TABLE\s+(?:IF NOT EXISTS\s+)?([^\s(]+)`)
	ddlStartRe    = regexp.MustCompile(`(?is)(CREATE TABLE.*)`)
)

// Document is one retrievable schema unit: a table's DDL plus whatever
// descriptive text travels with it.
type Document struct {
	Title       string
	Description string
	DDL         string
	Raw         string
}

// SplitCorpus splits a corpus file into per-table chunks, dropping blanks.
func SplitCorpus(raw string) []string {
	parts := strings.Split(raw, CorpusDelimiter)
	chunks := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		chunks = append(chunks, trimmed)
	}
	return chunks
}

// Parse tolerates all three corpus shapes: "<description>Schema:\n<DDL>",
// bare DDL, and description-only text with no CREATE TABLE at all.
func Parse(raw string) Document {
	doc := Document{Raw: raw}
	text := strings.TrimSpace(raw)

	if idx := strings.Index(text, descriptionMarker); idx >= 0 {
		doc.Description = strings.TrimSpace(text[:idx])
		doc.DDL = strings.TrimSpace(text[idx+len(descriptionMarker):])
	} else if match := ddlStartRe.FindStringIndex(text); match != nil {
		doc.Description = strings.TrimSpace(text[:match[0]])
		doc.DDL = strings.TrimSpace(text[match[0]:])
	} else {
		doc.Description = text
	}

	doc.Title = TableName(doc.DDL)
	return doc
}

// TableName extracts the table identifier from a CREATE TABLE statement.
// Returns "" when no statement is present.
func TableName(ddl string) string {
	match := createTableRe.FindStringSubmatch(ddl)
	if match == nil {
		return ""
	}
	return strings.Trim(match[1], `"'`+"`")
}
