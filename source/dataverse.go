package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/c360studio/semcode/transform"
)

// Fields of the records produced by Dataverse, in the column order of the
// cbs.csv export.
const (
	DataverseAlternativeTitle = "alternativeTitle"
	DataversePublicationDate  = "publicationDate"
	DataverseDOI              = "DOI"
	DataverseValidFrom        = "validFrom"
	DataverseValidTill        = "validTill"
	DataverseConcepts         = "relatedSkosConcepts"
)

var dataverseFields = []string{
	DataverseAlternativeTitle,
	DataversePublicationDate,
	DataverseDOI,
	DataverseValidFrom,
	DataverseValidTill,
	DataverseConcepts,
}

// Dataverse harvests the datasets of a Dataverse collection. It lists the
// collection through the contents API and exports every dataset as
// dataverse_json, emitting one record per dataset. Row is the dataset's
// 1-based position in the listing.
type Dataverse struct {
	// Contents is the collection's contents URL, for example
	// https://portal.odissei.nl/api/v1/dataverses/cbs/contents.
	Contents string
	// Fetcher downloads the API responses; nil uses a default Fetcher.
	Fetcher *Fetcher
	Logger  *slog.Logger
}

// IsDataverse reports whether location is a Dataverse collection contents URL.
func IsDataverse(location string) bool {
	_, ok := dataverseBase(location)
	return ok
}

// dataverseBase returns the server root of a contents URL.
func dataverseBase(location string) (string, bool) {
	if !IsRemote(location) {
		return "", false
	}
	u, err := url.Parse(location)
	if err != nil {
		return "", false
	}
	i := strings.Index(u.Path, "/api/")
	if i < 0 {
		return "", false
	}
	parts := strings.Split(strings.Trim(u.Path[i:], "/"), "/")
	// api[/v1]/dataverses/<alias>/contents
	switch {
	case len(parts) == 4 && parts[1] == "dataverses" && parts[3] == "contents":
	case len(parts) == 5 && parts[2] == "dataverses" && parts[4] == "contents":
	default:
		return "", false
	}
	return u.Scheme + "://" + u.Host + u.Path[:i], true
}

// Name returns the contents URL.
func (d *Dataverse) Name() string {
	return d.Contents
}

type dataverseResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    []dataverseItem `json:"data"`
}

type dataverseItem struct {
	Type            string `json:"type"`
	Protocol        string `json:"protocol"`
	Authority       string `json:"authority"`
	Identifier      string `json:"identifier"`
	PersistentURL   string `json:"persistentUrl"`
	PublicationDate string `json:"publicationDate"`
}

// persistentID is the identifier the export API expects, e.g. doi:10.57934/x.
func (it dataverseItem) persistentID() string {
	if it.Protocol != "" && it.Authority != "" && it.Identifier != "" {
		return it.Protocol + ":" + it.Authority + "/" + it.Identifier
	}
	return it.PersistentURL
}

type dataverseExport struct {
	DatasetVersion struct {
		MetadataBlocks map[string]struct {
			Fields []dataverseField `json:"fields"`
		} `json:"metadataBlocks"`
	} `json:"datasetVersion"`
}

type dataverseField struct {
	TypeName string          `json:"typeName"`
	Value    json.RawMessage `json:"value"`
}

// Read lists the collection and emits a record for every dataset in it.
func (d *Dataverse) Read(ctx context.Context, fn func(Record) error) error {
	base, ok := dataverseBase(d.Contents)
	if !ok {
		return fmt.Errorf("not a dataverse contents URL: %s", d.Contents)
	}
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var listing dataverseResponse
	if err := d.get(ctx, d.Contents, &listing); err != nil {
		return err
	}
	if listing.Status != "" && listing.Status != "OK" {
		return fmt.Errorf("%s: dataverse status %s: %s", d.Contents, listing.Status, listing.Message)
	}

	row := 0
	for _, item := range listing.Data {
		if err := ctx.Err(); err != nil {
			return err
		}
		if item.Type != "" && item.Type != "dataset" {
			continue
		}
		row++
		pid := item.persistentID()
		if pid == "" {
			logger.Warn("Dataset without persistent identifier", "source", d.Contents, "row", row)
			continue
		}

		exportURL := base + "/api/v1/datasets/export?exporter=dataverse_json&persistentId=" + url.QueryEscape(pid)
		var meta dataverseExport
		if err := d.get(ctx, exportURL, &meta); err != nil {
			return err
		}

		doi := item.PersistentURL
		if doi == "" {
			doi = pid
		}
		values := []string{
			transform.SanitizeTitle(meta.alternativeTitle()),
			item.PublicationDate,
			doi,
			meta.value("CBSMetadata", "GeldigVanaf"),
			meta.value("CBSMetadata", "GeldigTot"),
			strings.Join(meta.concepts(), " "),
		}
		if values[0] == "" {
			logger.Warn("Dataset without alternative title", "doi", doi)
		}
		if _, ok := meta.DatasetVersion.MetadataBlocks["enrichments"]; !ok {
			logger.Debug("Dataset without enrichments", "doi", doi)
		}

		if err := fn(NewRecord(row, dataverseFields, values)); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dataverse) get(ctx context.Context, rawURL string, v any) error {
	fetcher := d.Fetcher
	if fetcher == nil {
		fetcher = &Fetcher{}
	}
	rc, err := fetcher.Open(ctx, rawURL)
	if err != nil {
		return err
	}
	defer rc.Close()
	if err := json.NewDecoder(rc).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", rawURL, err)
	}
	return nil
}

func (m *dataverseExport) field(block, typeName string) (dataverseField, bool) {
	for _, f := range m.DatasetVersion.MetadataBlocks[block].Fields {
		if f.TypeName == typeName {
			return f, true
		}
	}
	return dataverseField{}, false
}

// value returns a primitive field value, or the first of a multiple one.
func (m *dataverseExport) value(block, typeName string) string {
	f, ok := m.field(block, typeName)
	if !ok {
		return ""
	}
	return firstString(f.Value)
}

func (m *dataverseExport) alternativeTitle() string {
	return m.value("citation", "alternativeTitle")
}

// concepts collects the vocabVarUri1 terms of the enrichments block.
func (m *dataverseExport) concepts() []string {
	var out []string
	for _, f := range m.DatasetVersion.MetadataBlocks["enrichments"].Fields {
		var compounds []map[string]dataverseField
		if err := json.Unmarshal(f.Value, &compounds); err != nil {
			continue
		}
		for _, c := range compounds {
			if term, ok := c["vocabVarUri1"]; ok {
				if s := firstString(term.Value); s != "" {
					out = append(out, s)
				}
			}
		}
	}
	return out
}

func firstString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return strings.TrimSpace(list[0])
	}
	return ""
}
