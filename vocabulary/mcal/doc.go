// Package mcal provides the controlled vocabularies of the MCAL (Media Content
// Analysis Literature) knowledge graph and the ODISSEI namespaces the ETL
// pipelines publish into.
//
// # Kinds
//
// Each Kind scopes an independent concept scheme with its own code prefix:
//
//	Kind                  Prefix  Unknown  Scheme
//	ContentFeature        CFE     CFE0     https://mcal.odissei.nl/cv/contentFeature/v0.1/
//	ContentAnalysisType   CAT     CAT0     https://mcal.odissei.nl/cv/contentAnalysisType/v0.1/
//	ResearchQuestionType  RQT     RQT0     https://mcal.odissei.nl/cv/researchQuestionType/v0.1/
//
// Codes are the last IRI segment under the scheme namespace, for example
// https://mcal.odissei.nl/cv/contentFeature/v0.1/CFE29.
//
// # Semstreams Integration
//
// Annotation predicates are registered in init() using vocabulary.Register()
// with dotted names (mcal.annotation.*) and their full IRIs, so graph
// consumers can query by either form.
package mcal
