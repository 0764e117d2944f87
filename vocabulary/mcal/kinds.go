package mcal

import (
	"fmt"
	"strings"
)

// Kind identifies a controlled-vocabulary concept scheme.
type Kind string

// Kind constants.
const (
	// ContentFeature covers features of the analysed media content.
	ContentFeature Kind = "contentFeature"
	// ContentAnalysisType covers the analysis method of a study.
	ContentAnalysisType Kind = "contentAnalysisType"
	// ResearchQuestionType covers the kind of research question addressed.
	ResearchQuestionType Kind = "researchQuestionType"
)

// Kinds lists every kind in a stable order.
var Kinds = []Kind{ContentFeature, ContentAnalysisType, ResearchQuestionType}

var kindPrefixes = map[Kind]string{
	ContentFeature:       "CFE",
	ContentAnalysisType:  "CAT",
	ResearchQuestionType: "RQT",
}

var kindAliases = map[string]Kind{
	"contentfeature":         ContentFeature,
	"content-feature":        ContentFeature,
	"content_feature":        ContentFeature,
	"cfe":                    ContentFeature,
	"contentanalysistype":    ContentAnalysisType,
	"content-analysis-type":  ContentAnalysisType,
	"content_analysis_type":  ContentAnalysisType,
	"cat":                    ContentAnalysisType,
	"researchquestiontype":   ResearchQuestionType,
	"research-question-type": ResearchQuestionType,
	"research_question_type": ResearchQuestionType,
	"rqt":                    ResearchQuestionType,
}

// ParseKind resolves a kind from its canonical name or a common alias.
func ParseKind(s string) (Kind, error) {
	if k, ok := kindAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return k, nil
	}
	return "", fmt.Errorf("unknown vocabulary kind: %q", s)
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	_, ok := kindPrefixes[k]
	return ok
}

// Prefix returns the code prefix of the kind (CFE, CAT, RQT).
func (k Kind) Prefix() string {
	return kindPrefixes[k]
}

// UnknownCode returns the code assigned to labels that have no table entry.
func (k Kind) UnknownCode() string {
	return k.Prefix() + "0"
}

// Namespace returns the concept scheme IRI of the kind, ending in a slash.
func (k Kind) Namespace() string {
	return CVNamespace + string(k) + "/" + SchemeVersion + "/"
}

// OwnsCode reports whether code lies in the kind's namespace: the kind prefix
// followed by one or more digits.
func (k Kind) OwnsCode(code string) bool {
	prefix := k.Prefix()
	if prefix == "" || !strings.HasPrefix(code, prefix) {
		return false
	}
	digits := code[len(prefix):]
	if digits == "" {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// CodeIRI returns the IRI of a code within the kind's concept scheme.
func CodeIRI(k Kind, code string) string {
	return k.Namespace() + code
}

// String returns the canonical kind name.
func (k Kind) String() string {
	return string(k)
}
