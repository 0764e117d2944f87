package pipeline

import (
	"github.com/c360studio/semcode/source"
	"github.com/c360studio/semcode/vocabulary/mcal"
)

// Source spreadsheets of the built-in pipelines.
const (
	// MCALSchemaSheet is the shared workbook with the MCAL scheme tabs.
	MCALSchemaSheet = "https://docs.google.com/spreadsheets/d/1zB1SFPpz5VDjlrh5LlJqmFXSggqXPODDPGHzLyL-Ef8"

	// ContentFeatureTab is the export link of the content feature tab.
	ContentFeatureTab = MCALSchemaSheet + "/export?gid=1646162430"

	// CBSZoteroBibliography lists papers based on CBS microdata.
	CBSZoteroBibliography = "https://docs.google.com/spreadsheets/d/1JDjvKf3sf60e9_8v-ef0IkyCNxA9y0jlLuCBkcbM-fs/export?gid=1386315381"

	// CBSCodeLibrary lists code published for CBS projects.
	CBSCodeLibrary = "https://raw.githubusercontent.com/odissei-data/ODISSEI-code-library/main/Data/odissei-projects_CBS.csv"

	// CBSProjectsBefore2024 lists microdata projects that ended before 2024.
	CBSProjectsBefore2024 = "https://www.cbs.nl/-/media/cbs-op-maat/zelf-onderzoek-doen/projecten_met_bestanden_einddatum_voor_2024.xlsx"

	// CBSProjectsAfter2023 lists microdata projects that end after 2023.
	CBSProjectsAfter2023 = "https://www.cbs.nl/-/media/cbs-op-maat/zelf-onderzoek-doen/projecten_met_bestanden_einddatum_na_2023.xlsx"

	// CBSDataverse is the contents API of the CBS collection on the ODISSEI
	// portal. It is harvested as a Dataverse source.
	CBSDataverse = "https://portal.odissei.nl/api/v1/dataverses/cbs/contents"
)

// Annotation sheet columns read by the annotations pipeline.
const (
	FieldDOI                  = "DOI"
	FieldTitle                = "Title"
	FieldShortTitle           = "ShortTitle"
	FieldProjectNumber        = "Projectnumber"
	FieldContentFeatures      = "Content features"
	FieldContentAnalysisType  = "Content analysis type"
	FieldResearchQuestionType = "Research question type"
)

// Schema properties of the ODISSEI knowledge graph.
const (
	PropProject      = mcal.KGSchemaNamespace + "project"
	PropBestandsnaam = mcal.KGSchemaNamespace + "bestandsnaam"
	PropInstelling   = mcal.KGSchemaNamespace + "instelling"
	PropStartDate    = mcal.KGSchemaNamespace + "startDate"
	PropEndDate      = mcal.KGSchemaNamespace + "endDate"
	PropDOI          = mcal.KGSchemaNamespace + "doi"
	PropValidFrom    = mcal.KGSchemaNamespace + "validFrom"
	PropValidTill    = mcal.KGSchemaNamespace + "validTill"
	ClassProject     = mcal.KGSchemaNamespace + "Project"
	DCTSubject       = mcal.DCT + "subject"
)

const subjectKey = "_IRI"

func init() {
	for _, p := range []*Pipeline{
		ConceptScheme(mcal.ContentFeature, ContentFeatureTab),
		ConceptScheme(mcal.ContentAnalysisType),
		ConceptScheme(mcal.ResearchQuestionType),
		Annotations(),
		Papers(),
		Codelib(),
		Projects(),
		Datasets(),
	} {
		if err := Register(p); err != nil {
			panic("failed to register pipeline: " + err.Error())
		}
	}
}

// schemeNames maps kinds to their concept scheme pipeline names.
var schemeNames = map[mcal.Kind]string{
	mcal.ContentFeature:       "content-features",
	mcal.ContentAnalysisType:  "content-analysis-types",
	mcal.ResearchQuestionType: "research-question-types",
}

// ConceptScheme publishes the rows of a scheme tab as SKOS concepts in the
// kind's namespace. Rows are keyed by their skos:notation column.
func ConceptScheme(kind mcal.Kind, inputs ...string) *Pipeline {
	ns := kind.Namespace()
	id := Key("_ID")
	scheme := ConstIRI(ns)
	return &Pipeline{
		Name:        schemeNames[kind],
		Description: "SKOS concept scheme for " + string(kind),
		Graph:       ns,
		Inputs:      inputs,
		Format:      source.FormatXLSX,
		Steps: []Step{
			When("skos:notation",
				AddIRI("skos:notation", ns, "_ID"),
				Type(scheme, mcal.SKOSConceptScheme),
				Type(id, mcal.SKOSConcept),
				Assert(id, mcal.SKOSPrefLabel, Key("skos:prefLabel")),
				Assert(id, mcal.SKOSNotation, Key("skos:notation")),
				Assert(id, mcal.SKOSInScheme, scheme),
				When("Description",
					Assert(id, mcal.SKOSScopeNote, Key("Description"))),
				When("Example",
					Assert(id, mcal.SKOSExample, Key("Example"))),
				When("skos:broader",
					AddIRI("skos:broader", ns, "_broader"),
					Assert(id, mcal.SKOSBroader, Key("_broader")),
					Assert(Key("_broader"), mcal.SKOSNarrower, id)),
				When("isTopConcept",
					Assert(scheme, mcal.SKOSHasTopConcept, id)),
			),
		},
	}
}

// Annotations links annotated papers to the MCAL vocabularies. The three
// vocabulary columns hold comma separated labels that are normalized to
// concept codes.
func Annotations() *Pipeline {
	paper := Key(subjectKey)
	return &Pipeline{
		Name:        "annotations",
		Description: "MCAL paper annotations with content features, analysis and question types",
		Graph:       mcal.GraphNamespace + "mcal",
		Steps: []Step{
			When(FieldDOI,
				AddDOI(FieldDOI, subjectKey),
				Type(paper, mcal.BIBOAcademicArticle),
				When(FieldTitle,
					Assert(paper, mcal.DCTTitle, Key(FieldTitle))),
				LookupCodes(mcal.ContentFeature, FieldContentFeatures, ",", "_cf"),
				LookupCodes(mcal.ContentAnalysisType, FieldContentAnalysisType, ",", "_cat"),
				LookupCodes(mcal.ResearchQuestionType, FieldResearchQuestionType, ",", "_rqt"),
				Assert(paper, mcal.HasContentFeature, Key("_cf")),
				Assert(paper, mcal.HasContentAnalysisType, Key("_cat")),
				Assert(paper, mcal.HasResearchQuestionType, Key("_rqt")),
			),
		},
	}
}

// Papers publishes the CBS microdata bibliography.
func Papers() *Pipeline {
	paper := Key(subjectKey)
	return &Pipeline{
		Name:        "papers",
		Description: "Papers using CBS microdata, linked to their projects",
		Graph:       mcal.GraphNamespace + "papers",
		Inputs:      []string{CBSZoteroBibliography},
		Format:      source.FormatXLSX,
		Steps: []Step{
			When(FieldDOI,
				AddDOI(FieldDOI, subjectKey),
				Type(paper, mcal.BIBOAcademicArticle),
				When(FieldProjectNumber,
					Assert(paper, PropProject, IRIOf(mcal.CBSProjectNamespace, FieldProjectNumber))),
				When(FieldTitle,
					Assert(paper, mcal.DCTTitle, Key(FieldTitle))),
				When(FieldShortTitle,
					Assert(paper, mcal.BIBOShortTitle, Key(FieldShortTitle))),
			),
		},
	}
}

// Codelib publishes the ODISSEI code library entries for CBS projects.
// Entry codes are usually repository URLs and are used as IRIs directly.
func Codelib() *Pipeline {
	code := Key(subjectKey)
	return &Pipeline{
		Name:        "codelib",
		Description: "ODISSEI code library entries for CBS projects",
		Graph:       mcal.GraphNamespace + "codelib",
		Inputs:      []string{CBSCodeLibrary},
		Format:      source.FormatCSV,
		Steps: []Step{
			When("code",
				AddIRI("code", mcal.CodelibNamespace, subjectKey),
				Type(code, mcal.DCMISoftware),
				When("CBS_project_nr",
					Assert(code, PropProject, IRIOf(mcal.CBSProjectNamespace, "CBS_project_nr"))),
				When("title",
					Assert(code, mcal.DCTTitle, Key("title"))),
				When("ShortTitle",
					Assert(code, mcal.BIBOShortTitle, Key("ShortTitle"))),
				WhenFunc(NotAbsent("orcid"),
					SplitField("orcid", ",", "_orcids"),
					Assert(code, mcal.DCTCreator, IRIOf(mcal.ORCIDNamespace, "_orcids"))),
			),
		},
	}
}

// Projects publishes CBS microdata projects from the two published project
// lists. Start and end dates arrive as spreadsheet serial numbers.
func Projects() *Pipeline {
	project := Key(subjectKey)
	return &Pipeline{
		Name:        "projects",
		Description: "CBS microdata projects with datasets, institutions and dates",
		Graph:       mcal.GraphNamespace + "projects",
		Inputs:      []string{CBSProjectsBefore2024, CBSProjectsAfter2023},
		Format:      source.FormatXLSX,
		Steps: []Step{
			When("Projectnummer",
				AddIRI("Projectnummer", mcal.CBSProjectNamespace, subjectKey),
				Type(project, ClassProject),
				When("Bestandsnaam",
					Assert(project, PropBestandsnaam, IRIOf(mcal.CBSDatasetNamespace, "Bestandsnaam"))),
				When("Instelling",
					Assert(project, PropInstelling, IRIOf(mcal.CBSOrganisationNamespace, "Instelling"))),
				When("Startdatum",
					ChangeDate("Startdatum", "_start"),
					Assert(project, PropStartDate, Key("_start"))),
				When("Einddatum",
					ChangeDate("Einddatum", "_end"),
					Assert(project, PropEndDate, Key("_end"))),
			),
		},
	}
}

// Datasets publishes CBS data designs exported from the ODISSEI portal.
// Datasets are keyed by their alternative title, which is the file name
// projects refer to.
func Datasets() *Pipeline {
	dataset := Key(subjectKey)
	return &Pipeline{
		Name:        "datasets",
		Description: "CBS datasets harvested from the ODISSEI portal dataverse",
		Graph:       mcal.GraphNamespace + "datasets",
		Inputs:      []string{CBSDataverse},
		Format:      source.FormatCSV,
		Steps: []Step{
			When("alternativeTitle",
				Sanitize("alternativeTitle", "_title"),
				AddIRI("_title", mcal.CBSDatasetNamespace, subjectKey),
				Type(dataset, mcal.DCMIDataset),
				Assert(dataset, mcal.DCTTitle, Key("_title")),
				When("DOI",
					AddDOI("DOI", "_doi"),
					Assert(dataset, PropDOI, Key("_doi"))),
				When("publicationDate",
					ChangeDate("publicationDate", "_issued"),
					Assert(dataset, mcal.DCTIssued, Key("_issued"))),
				When("validFrom",
					ChangeDate("validFrom", "_from"),
					Assert(dataset, PropValidFrom, Key("_from"))),
				When("validTill",
					ChangeDate("validTill", "_till"),
					Assert(dataset, PropValidTill, Key("_till"))),
				When("relatedSkosConcepts",
					SplitField("relatedSkosConcepts", " ", "_concepts"),
					Assert(dataset, DCTSubject, IRIOf("", "_concepts"))),
			),
		},
	}
}
