// Package evidence implements keyword auto-detection of evidence
// mentions inside dialogue text, and the collected-evidence set that
// grows from it.
package evidence

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/minsnailee/llm-detective/pkg/scenario"
)

// Set is the collected-evidence set for one session: ordered, without
// duplicates. It grows monotonically during play; manual removal by the
// player is the only way it shrinks.
type Set struct {
	ids   []string
	index map[string]struct{}
}

// NewSet builds a set from previously persisted ids, dropping duplicates.
func NewSet(ids ...string) *Set {
	s := &Set{index: make(map[string]struct{}, len(ids))}
	s.Add(ids...)
	return s
}

// Contains reports whether the evidence id has been collected.
func (s *Set) Contains(id string) bool {
	_, ok := s.index[id]
	return ok
}

// Add unions the given ids into the set, preserving first-seen order.
func (s *Set) Add(ids ...string) {
	for _, id := range ids {
		if id == "" || s.Contains(id) {
			continue
		}
		s.ids = append(s.ids, id)
		s.index[id] = struct{}{}
	}
}

// Remove drops one id from the set. Returns false if it was not present.
func (s *Set) Remove(id string) bool {
	if !s.Contains(id) {
		return false
	}
	delete(s.index, id)
	for i, v := range s.ids {
		if v == id {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			break
		}
	}
	return true
}

// IDs returns the collected ids in collection order.
func (s *Set) IDs() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// Len reports the number of collected ids.
func (s *Set) Len() int {
	return len(s.ids)
}

// Detector scans dialogue text for evidence keyword hits against a fixed
// catalog. Matching is literal lower-cased substring containment, not
// tokenized: a keyword that happens to be a fragment of an unrelated
// word will match. That looseness is accepted behavior.
type Detector struct {
	catalog []scenario.Evidence
	lower   cases.Caser
}

// NewDetector builds a detector over the scenario's evidence catalog.
func NewDetector(catalog []scenario.Evidence) *Detector {
	return &Detector{
		catalog: catalog,
		lower:   cases.Lower(language.Und),
	}
}

// Scan returns the ids of catalog entries not yet in collected whose
// name or any keyword occurs in text. It is pure: the caller unions the
// result into the set and persists it as one batch. Re-scanning the same
// text against the grown set yields nothing, so detection is idempotent.
func (d *Detector) Scan(text string, collected *Set) []string {
	if text == "" {
		return nil
	}
	haystack := d.lower.String(text)

	var found []string
	for _, ev := range d.catalog {
		if ev.ID == "" || collected.Contains(ev.ID) {
			continue
		}
		if d.matches(haystack, ev) {
			found = append(found, ev.ID)
		}
	}
	return found
}

// matches checks the entry's name plus keywords. Entries with no
// non-empty terms are never matchable and are skipped.
func (d *Detector) matches(haystack string, ev scenario.Evidence) bool {
	terms := make([]string, 0, len(ev.Keywords)+1)
	if ev.Name != "" {
		terms = append(terms, ev.Name)
	}
	terms = append(terms, ev.Keywords...)

	for _, term := range terms {
		if term == "" {
			continue
		}
		if strings.Contains(haystack, d.lower.String(term)) {
			return true
		}
	}
	return false
}
