package legal

import (
	"regexp"
	"strings"
)

// Prefix windows, in runes. Caption and heading material sits at the top of a
// judgment, so nothing past these offsets is inspected.
const (
	headingWindow = 2000
	bodyWindow    = 3000
)

const (
	MaxJudges    = 5
	MaxCitations = 10
	MaxSubjects  = 5

	minJudgeNameLen = 4
)

// rule is one pattern in a field's cascade. render turns a submatch slice into
// the extracted value; an empty result counts as no match.
type rule struct {
	name    string
	pattern *regexp.Regexp
	render  func(m []string) string
}

// A party name stays on one line; the "vs" token between parties may sit on
// its own line, as it does in most report captions.
const partyName = `[A-Z][A-Za-z &.']*[A-Za-z.]`

// caseNameRules, first match wins:
//  1. "<party> v/vs/v./vs. <party>"
//  2. "<party> and others"
var caseNameRules = []rule{
	{
		name:    "versus",
		pattern: regexp.MustCompile(`(` + partyName + `)\s+[Vv][Ss]?\.?\s+(` + partyName + `)`),
		render: func(m []string) string {
			return collapseSpace(m[1]) + " vs " + collapseSpace(m[2])
		},
	},
	{
		name:    "and-others",
		pattern: regexp.MustCompile(`([A-Z][A-Za-z \t]+)[ \t]+[Aa][Nn][Dd][ \t]+[Oo][Tt][Hh][Ee][Rr][Ss]`),
		render: func(m []string) string {
			return collapseSpace(m[0])
		},
	},
}

// courtRules, first match wins:
//  1. named court or division
//  2. proceeding type, e.g. "Civil Appeal"
var courtRules = []rule{
	{
		name:    "court-name",
		pattern: regexp.MustCompile(`(?i)(Supreme Court|High Court Division|Appellate Division)`),
		render:  wholeMatch,
	},
	{
		name:    "proceeding",
		pattern: regexp.MustCompile(`(?i)(Civil|Criminal|Constitutional|Commercial)\s+(Appeal|Petition|Revision)`),
		render:  wholeMatch,
	},
}

// caseNumberRules, first match wins:
//  1. "<Civil|Criminal|Constitutional> <Appeal|Petition|Revision> No. N of YYYY"
//  2. "Case No. N of YYYY"
//  3. "Appeal No. N of YYYY"
var caseNumberRules = []rule{
	{
		name:    "proceeding-number",
		pattern: regexp.MustCompile(`(?i)(?:Civil|Criminal|Constitutional)\s+(?:Appeal|Petition|Revision)\s+No\.?\s*(\d+\s+of\s+\d+)`),
		render:  firstGroup,
	},
	{
		name:    "case-number",
		pattern: regexp.MustCompile(`(?i)Case\s+No\.?\s*(\d+\s+of\s+\d+)`),
		render:  firstGroup,
	},
	{
		name:    "appeal-number",
		pattern: regexp.MustCompile(`(?i)Appeal\s+No\.?\s*(\d+\s+of\s+\d+)`),
		render:  firstGroup,
	},
}

// judgmentDateRules, first match wins:
//  1. long form date after a "Judgment/Decided/Date" label
//  2. numeric dd/mm/yyyy or dd-mm-yyyy anywhere in the heading
var judgmentDateRules = []rule{
	{
		name: "labelled-long-date",
		pattern: regexp.MustCompile(`(?i)(?:Judgment|Judgement|Decided|Date).*?` +
			`(\d{1,2}(?:st|nd|rd|th)?\s+(?:January|February|March|April|May|June|July|August|September|October|November|December),?\s+\d{4})`),
		render: firstGroup,
	},
	{
		name:    "numeric-date",
		pattern: regexp.MustCompile(`(\d{1,2}[/-]\d{1,2}[/-]\d{4})`),
		render:  firstGroup,
	},
}

// citationRules are all collected: SCOB, then BLD, then DLR reports.
var citationRules = []rule{
	{name: "scob", pattern: regexp.MustCompile(`(\d+)\s+SCOB\s+(\d+)`), render: reporter("SCOB")},
	{name: "bld", pattern: regexp.MustCompile(`(\d+)\s+BLD\s+(\d+)`), render: reporter("BLD")},
	{name: "dlr", pattern: regexp.MustCompile(`(\d+)\s+DLR\s+(\d+)`), render: reporter("DLR")},
}

// judgeName keeps the name on the line it starts on, so the honorific of the
// next bench member is not absorbed.
const judgeName = `([A-Z][a-z]+(?:[ \t]+[A-Z][a-z]+)*)`

// judgeRules are all collected: "Justice X" or "J. X", then honorific forms.
var judgeRules = []rule{
	{
		name:    "justice",
		pattern: regexp.MustCompile(`(?:Justice|J\.)\s+` + judgeName),
		render:  firstGroup,
	},
	{
		name:    "honourable",
		pattern: regexp.MustCompile(`(?:Hon'?ble|Honourable)\s+(?:Mr\.|Ms\.)?\s*Justice\s+` + judgeName),
		render:  firstGroup,
	},
}

// subjectVocabulary is matched by case-insensitive membership, in this order.
var subjectVocabulary = []string{
	"Constitution", "Contract", "Property", "Criminal", "Civil",
	"Service", "Land", "Tax", "Administrative", "Writ",
	"Fundamental Rights", "Tort", "Family", "Succession",
	"Evidence", "Procedure", "Arbitration", "Company",
	"Banking", "Insurance", "Labour", "Employment",
}

func wholeMatch(m []string) string {
	return collapseSpace(m[0])
}

func firstGroup(m []string) string {
	return collapseSpace(m[1])
}

func reporter(series string) func(m []string) string {
	return func(m []string) string {
		return m[1] + " " + series + " " + m[2]
	}
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
