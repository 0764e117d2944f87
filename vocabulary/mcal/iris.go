package mcal

// SchemeVersion is the version segment of the MCAL concept scheme IRIs.
const SchemeVersion = "v0.1"

// CVNamespace is the base IRI of the MCAL controlled vocabularies.
const CVNamespace = "https://mcal.odissei.nl/cv/"

// SchemaNamespace is the base IRI for MCAL annotation properties.
const SchemaNamespace = "https://mcal.odissei.nl/schema/"

// ODISSEI knowledge graph namespaces.
const (
	// KGNamespace is the base IRI of the ODISSEI knowledge graph.
	KGNamespace = "https://kg.odissei.nl/"

	// GraphNamespace holds named graph IRIs.
	GraphNamespace = KGNamespace + "graph/"

	// KGSchemaNamespace holds ODISSEI schema properties.
	KGSchemaNamespace = KGNamespace + "schema/"

	// CodelibNamespace holds code library entries.
	CodelibNamespace = KGNamespace + "cbs_codelib/"

	// CBSProjectNamespace holds CBS microdata project IRIs.
	CBSProjectNamespace = KGNamespace + "cbs/project/"

	// CBSOrganisationNamespace holds CBS research institutions.
	CBSOrganisationNamespace = KGNamespace + "cbs/organisation/"

	// CBSDatasetNamespace holds CBS dataset IRIs.
	CBSDatasetNamespace = KGNamespace + "cbs/dataset/"

	// DOINamespace resolves digital object identifiers.
	DOINamespace = "https://doi.org/"

	// ORCIDNamespace resolves researcher identifiers.
	ORCIDNamespace = "https://orcid.org/"

	// ISSNNamespace resolves serial identifiers.
	ISSNNamespace = "https://portal.issn.org/resource/ISSN/"
)

// External vocabulary namespaces.
const (
	RDF      = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFS     = "http://www.w3.org/2000/01/rdf-schema#"
	XSD      = "http://www.w3.org/2001/XMLSchema#"
	SKOS     = "http://www.w3.org/2004/02/skos/core#"
	DCT      = "http://purl.org/dc/terms/"
	DCMIType = "http://purl.org/dc/dcmitype/"
	BIBO     = "http://purl.org/ontology/bibo/"
	FOAF     = "http://xmlns.com/foaf/0.1/"
)

// Frequently used terms.
const (
	RDFType = RDF + "type"

	XSDString   = XSD + "string"
	XSDInteger  = XSD + "integer"
	XSDDecimal  = XSD + "decimal"
	XSDBoolean  = XSD + "boolean"
	XSDDate     = XSD + "date"
	XSDDateTime = XSD + "dateTime"

	SKOSConcept       = SKOS + "Concept"
	SKOSConceptScheme = SKOS + "ConceptScheme"
	SKOSPrefLabel     = SKOS + "prefLabel"
	SKOSNotation      = SKOS + "notation"
	SKOSInScheme      = SKOS + "inScheme"
	SKOSScopeNote     = SKOS + "scopeNote"
	SKOSExample       = SKOS + "example"
	SKOSBroader       = SKOS + "broader"
	SKOSNarrower      = SKOS + "narrower"
	SKOSHasTopConcept = SKOS + "hasTopConcept"

	DCTTitle   = DCT + "title"
	DCTCreator = DCT + "creator"
	DCTIssued  = DCT + "issued"

	BIBOAcademicArticle = BIBO + "AcademicArticle"
	BIBOShortTitle      = BIBO + "shortTitle"
	BIBODOI             = BIBO + "doi"

	DCMISoftware = DCMIType + "Software"
	DCMIDataset  = DCMIType + "Dataset"
)

// Prefixes returns the prefix declarations used when serialising pipeline
// output. The returned map is a fresh copy.
func Prefixes() map[string]string {
	return map[string]string{
		"rdf":      RDF,
		"rdfs":     RDFS,
		"xsd":      XSD,
		"skos":     SKOS,
		"dct":      DCT,
		"dcmitype": DCMIType,
		"bibo":     BIBO,
		"foaf":     FOAF,
		"graph":    GraphNamespace,
		"odissei":  KGSchemaNamespace,
		"codelib":  CodelibNamespace,
		"cbs_pr":   CBSProjectNamespace,
		"cbs_org":  CBSOrganisationNamespace,
		"cbs_ds":   CBSDatasetNamespace,
		"doi":      DOINamespace,
		"orcid":    ORCIDNamespace,
		"issn":     ISSNNamespace,
		"mcal":     SchemaNamespace,
		"cf":       ContentFeature.Namespace(),
		"cat":      ContentAnalysisType.Namespace(),
		"rqt":      ResearchQuestionType.Namespace(),
	}
}
