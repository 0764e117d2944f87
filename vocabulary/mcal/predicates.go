package mcal

import "github.com/c360studio/semstreams/vocabulary"

// Annotation predicates in dotted notation (domain.category.property).
const (
	// AnnotationContentFeature links a paper to a content feature concept.
	AnnotationContentFeature = "mcal.annotation.content_feature"

	// AnnotationAnalysisType links a paper to a content analysis type concept.
	AnnotationAnalysisType = "mcal.annotation.analysis_type"

	// AnnotationQuestionType links a paper to a research question type concept.
	AnnotationQuestionType = "mcal.annotation.question_type"

	// ConceptPrefLabel is the preferred label of a concept.
	ConceptPrefLabel = "mcal.concept.pref_label"

	// ConceptNotation is the code of a concept.
	ConceptNotation = "mcal.concept.notation"

	// ConceptBroader links a concept to its parent.
	ConceptBroader = "mcal.concept.broader"

	// ResourceIRI carries the IRI an entity was minted from.
	ResourceIRI = "mcal.resource.iri"
)

// OWLSameAs is the IRI registered for ResourceIRI.
const OWLSameAs = "http://www.w3.org/2002/07/owl#sameAs"

// Annotation property IRIs.
const (
	HasContentFeature       = SchemaNamespace + "contentFeature"
	HasContentAnalysisType  = SchemaNamespace + "contentAnalysisType"
	HasResearchQuestionType = SchemaNamespace + "researchQuestionType"
)

// AnnotationProperty returns the annotation property IRI for a kind.
func AnnotationProperty(k Kind) string {
	switch k {
	case ContentFeature:
		return HasContentFeature
	case ContentAnalysisType:
		return HasContentAnalysisType
	case ResearchQuestionType:
		return HasResearchQuestionType
	default:
		return SchemaNamespace + string(k)
	}
}

// iriToPredicate maps registered IRIs back to their dotted predicate.
var iriToPredicate = map[string]string{
	HasContentFeature:       AnnotationContentFeature,
	HasContentAnalysisType:  AnnotationAnalysisType,
	HasResearchQuestionType: AnnotationQuestionType,
	SKOSPrefLabel:           ConceptPrefLabel,
	SKOSNotation:            ConceptNotation,
	SKOSBroader:             ConceptBroader,
}

// PredicateForIRI returns the dotted predicate registered for iri. Unregistered
// IRIs are returned unchanged.
func PredicateForIRI(iri string) string {
	if p, ok := iriToPredicate[iri]; ok {
		return p
	}
	return iri
}

func init() {
	vocabulary.Register(AnnotationContentFeature,
		vocabulary.WithDescription("Content feature studied by the annotated paper"),
		vocabulary.WithDataType("entity_id"),
		vocabulary.WithIRI(HasContentFeature))

	vocabulary.Register(AnnotationAnalysisType,
		vocabulary.WithDescription("Content analysis method used by the annotated paper"),
		vocabulary.WithDataType("entity_id"),
		vocabulary.WithIRI(HasContentAnalysisType))

	vocabulary.Register(AnnotationQuestionType,
		vocabulary.WithDescription("Type of research question addressed by the annotated paper"),
		vocabulary.WithDataType("entity_id"),
		vocabulary.WithIRI(HasResearchQuestionType))

	vocabulary.Register(ConceptPrefLabel,
		vocabulary.WithDescription("Preferred label of a controlled-vocabulary concept"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(SKOSPrefLabel))

	vocabulary.Register(ConceptNotation,
		vocabulary.WithDescription("Short code of a controlled-vocabulary concept"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(SKOSNotation))

	vocabulary.Register(ConceptBroader,
		vocabulary.WithDescription("Broader concept in the same scheme"),
		vocabulary.WithDataType("entity_id"),
		vocabulary.WithIRI(SKOSBroader))

	vocabulary.Register(ResourceIRI,
		vocabulary.WithDescription("Linked data IRI of the entity"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(OWLSameAs))
}
