package legal

import (
	"strings"

	"legal-rag-be/internal/entity"
)

// Extractor derives structured case metadata from the leading text of a
// judgment. It never fails; fields without a match are left empty.
type Extractor struct {
	vocabulary []string
}

func NewExtractor() *Extractor {
	return &Extractor{vocabulary: subjectVocabulary}
}

func (e *Extractor) Extract(text string) entity.Metadata {
	heading := prefix(text, headingWindow)
	body := prefix(text, bodyWindow)

	return entity.Metadata{
		CaseName:      firstMatch(caseNameRules, heading),
		CaseNumber:    firstMatch(caseNumberRules, heading),
		Court:         firstMatch(courtRules, heading),
		JudgmentDate:  firstMatch(judgmentDateRules, heading),
		Judges:        e.judges(body),
		Citations:     allMatches(citationRules, body, MaxCitations, false, nil),
		SubjectMatter: e.subjects(body),
	}
}

func (e *Extractor) judges(text string) []string {
	keep := func(name string) bool {
		return len([]rune(name)) >= minJudgeNameLen
	}
	return allMatches(judgeRules, text, MaxJudges, true, keep)
}

func (e *Extractor) subjects(text string) []string {
	lower := strings.ToLower(text)
	out := []string{}
	for _, topic := range e.vocabulary {
		if strings.Contains(lower, strings.ToLower(topic)) {
			out = append(out, topic)
			if len(out) == MaxSubjects {
				break
			}
		}
	}
	return out
}

func firstMatch(rules []rule, text string) string {
	for _, r := range rules {
		m := r.pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if v := r.render(m); v != "" {
			return v
		}
	}
	return ""
}

// allMatches collects every match of every rule in rule order, dropping
// duplicates (case-insensitively when foldCase is set) and stopping at limit.
func allMatches(rules []rule, text string, limit int, foldCase bool, keep func(string) bool) []string {
	out := []string{}
	seen := make(map[string]struct{})
	for _, r := range rules {
		for _, m := range r.pattern.FindAllStringSubmatch(text, -1) {
			v := r.render(m)
			if v == "" || (keep != nil && !keep(v)) {
				continue
			}
			key := v
			if foldCase {
				key = strings.ToLower(v)
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, v)
			if len(out) == limit {
				return out
			}
		}
	}
	return out
}

func prefix(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}

// FormatForDisplay renders metadata as a single " | " separated line.
func FormatForDisplay(m entity.Metadata) string {
	var parts []string
	if m.CaseName != "" {
		parts = append(parts, "Case: "+m.CaseName)
	}
	if m.CaseNumber != "" {
		parts = append(parts, "Case No: "+m.CaseNumber)
	}
	if m.Court != "" {
		parts = append(parts, "Court: "+m.Court)
	}
	if len(m.Judges) > 0 {
		parts = append(parts, "Judges: "+strings.Join(m.Judges, ", "))
	}
	if m.JudgmentDate != "" {
		parts = append(parts, "Date: "+m.JudgmentDate)
	}
	if len(m.Citations) > 0 {
		parts = append(parts, "Citations: "+strings.Join(m.Citations, ", "))
	}
	if len(m.SubjectMatter) > 0 {
		parts = append(parts, "Topics: "+strings.Join(m.SubjectMatter, ", "))
	}
	if len(parts) == 0 {
		return "No metadata extracted"
	}
	return strings.Join(parts, " | ")
}
