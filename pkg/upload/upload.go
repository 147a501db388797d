// Package upload holds the document acceptance rules applied before a file is
// attached to a form field. A document that fails its policy is never stored;
// callers receive a human-readable rejection message instead.
package upload

import (
	"fmt"
	"strings"
)

// Document is a user-supplied file plus the metadata the browser or CLI
// exposes for it. Payload may be nil when only metadata is known.
type Document struct {
	Filename string
	MIME     string
	Size     int64
	Payload  []byte
}

// Named pairs an accepted document with the human-supplied label it was
// uploaded under.
type Named struct {
	Label    string
	Document Document
}

// Policy describes what a single upload control accepts. Ceilings vary per
// form instance, so both values are configuration rather than globals.
type Policy struct {
	AllowedTypes []string
	MaxBytes     int64
}

// Check validates one document against the policy. It returns "" when the
// document is acceptable, otherwise a message suitable for inline display.
func (p Policy) Check(doc Document) string {
	if len(p.AllowedTypes) > 0 && !p.allows(doc.MIME) {
		return fmt.Sprintf("Only %s files are allowed", p.typeLabels())
	}
	if p.MaxBytes > 0 && doc.Size > p.MaxBytes {
		return fmt.Sprintf("File size must be less than %d MB", p.MaxBytes/(1024*1024))
	}
	return ""
}

func (p Policy) allows(mime string) bool {
	needle := strings.ToLower(strings.TrimSpace(mime))
	for _, allowed := range p.AllowedTypes {
		if strings.ToLower(allowed) == needle {
			return true
		}
	}
	return false
}

func (p Policy) typeLabels() string {
	labels := make([]string, 0, len(p.AllowedTypes))
	seen := map[string]bool{}
	for _, allowed := range p.AllowedTypes {
		label := allowed
		if idx := strings.Index(label, "/"); idx >= 0 {
			label = label[idx+1:]
		}
		label = strings.ToUpper(label)
		if label == "JPG" {
			label = "JPEG"
		}
		if seen[label] {
			continue
		}
		seen[label] = true
		labels = append(labels, label)
	}
	switch len(labels) {
	case 0:
		return ""
	case 1:
		return labels[0]
	default:
		return strings.Join(labels[:len(labels)-1], ", ") + " or " + labels[len(labels)-1]
	}
}

// BatchPolicy governs a multi-document control: every file must individually
// pass the base policy, the batch may not exceed MaxCount entries, and both
// labels and filenames must be unique (case-insensitively) across the
// accepted set.
type BatchPolicy struct {
	Policy   Policy
	MaxCount int
}

// Accept validates a new labelled batch against the already accepted set and
// returns the extended set on success. On failure it returns the set
// unchanged plus a rejection message; partial batches are never attached.
func (p BatchPolicy) Accept(existing []Named, label string, docs []Document) ([]Named, string) {
	label = strings.TrimSpace(label)
	if label == "" {
		return existing, "Please enter document name"
	}
	if len(docs) == 0 {
		return existing, "Please upload at least one document"
	}

	for _, have := range existing {
		if strings.EqualFold(have.Label, label) {
			return existing, "Document with same name has already been uploaded"
		}
	}
	for _, doc := range docs {
		for _, have := range existing {
			if strings.EqualFold(have.Document.Filename, doc.Filename) {
				return existing, fmt.Sprintf("File %q is already uploaded", doc.Filename)
			}
		}
	}

	for _, doc := range docs {
		if msg := p.Policy.Check(doc); msg != "" {
			return existing, msg
		}
	}

	if p.MaxCount > 0 && len(existing)+len(docs) > p.MaxCount {
		return existing, fmt.Sprintf("Maximum %d documents allowed", p.MaxCount)
	}

	merged := make([]Named, 0, len(existing)+len(docs))
	merged = append(merged, existing...)
	for _, doc := range docs {
		merged = append(merged, Named{Label: label, Document: doc})
	}
	return merged, ""
}
