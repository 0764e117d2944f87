package source_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/c360studio/semcode/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dataverseContents = `{"status":"OK","data":[
  {"type":"dataverse","id":7,"title":"Sub collection"},
  {"type":"dataset","protocol":"doi","authority":"10.57934","identifier":"0b01e4108071c5bf",
   "persistentUrl":"https://doi.org/10.57934/0b01e4108071c5bf","publicationDate":"2022-04-20"},
  {"type":"dataset","protocol":"doi","authority":"10.57934","identifier":"0b01e41080ab0001",
   "persistentUrl":"https://doi.org/10.57934/0b01e41080ab0001","publicationDate":"2023-01-05"}
]}`

const gbaExport = `{"datasetVersion":{"metadataBlocks":{
  "citation":{"fields":[
    {"typeName":"title","multiple":false,"value":"Persons in the population register"},
    {"typeName":"alternativeTitle","multiple":true,"value":["GBAPERSOONTAB [2022]"]}
  ]},
  "CBSMetadata":{"fields":[
    {"typeName":"GeldigVanaf","value":"2022-01-01"},
    {"typeName":"GeldigTot","value":"2022-12-31"}
  ]},
  "enrichments":{"fields":[
    {"typeName":"vocabVarCompound","multiple":true,"value":[
      {"vocabVarUri1":{"typeName":"vocabVarUri1","value":"https://vocabs.cbs.nl/a"}},
      {"vocabVarUri1":{"typeName":"vocabVarUri1","value":"https://vocabs.cbs.nl/b"}}
    ]}
  ]}
}}}`

const bareExport = `{"datasetVersion":{"metadataBlocks":{
  "citation":{"fields":[{"typeName":"alternativeTitle","value":"HUISHOUDENSBUS"}]}
}}}`

func dataverseServer(t *testing.T) (*httptest.Server, func() []string) {
	t.Helper()
	var (
		mu   sync.Mutex
		pids []string
	)
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/dataverses/cbs/contents", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, dataverseContents)
	})
	mux.HandleFunc("/api/v1/datasets/export", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("exporter") != "dataverse_json" {
			http.Error(w, "bad exporter", http.StatusBadRequest)
			return
		}
		pid := r.URL.Query().Get("persistentId")
		mu.Lock()
		pids = append(pids, pid)
		mu.Unlock()
		switch pid {
		case "doi:10.57934/0b01e4108071c5bf":
			fmt.Fprint(w, gbaExport)
		case "doi:10.57934/0b01e41080ab0001":
			fmt.Fprint(w, bareExport)
		default:
			http.NotFound(w, r)
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), pids...)
	}
}

func TestDataverse(t *testing.T) {
	srv, pids := dataverseServer(t)
	fetcher := &source.Fetcher{Client: srv.Client(), AllowPrivate: true}

	src := &source.Dataverse{Contents: srv.URL + "/api/v1/dataverses/cbs/contents", Fetcher: fetcher}
	var records []source.Record
	require.NoError(t, src.Read(context.Background(), func(r source.Record) error {
		records = append(records, r)
		return nil
	}))

	assert.Equal(t, []string{"doi:10.57934/0b01e4108071c5bf", "doi:10.57934/0b01e41080ab0001"}, pids())
	require.Len(t, records, 2)

	gba := records[0]
	assert.Equal(t, 1, gba.Row)
	assert.Equal(t, []string{"alternativeTitle", "publicationDate", "DOI", "validFrom", "validTill", "relatedSkosConcepts"}, gba.Fields())
	assert.Equal(t, "GBAPERSOONTAB _2022_", gba.Value(source.DataverseAlternativeTitle))
	assert.Equal(t, "2022-04-20", gba.Value(source.DataversePublicationDate))
	assert.Equal(t, "https://doi.org/10.57934/0b01e4108071c5bf", gba.Value(source.DataverseDOI))
	assert.Equal(t, "2022-01-01", gba.Value(source.DataverseValidFrom))
	assert.Equal(t, "2022-12-31", gba.Value(source.DataverseValidTill))
	assert.Equal(t, "https://vocabs.cbs.nl/a https://vocabs.cbs.nl/b", gba.Value(source.DataverseConcepts))

	bare := records[1]
	assert.Equal(t, 2, bare.Row)
	assert.Equal(t, "HUISHOUDENSBUS", bare.Value(source.DataverseAlternativeTitle))
	assert.False(t, bare.Has(source.DataverseValidFrom))
	assert.False(t, bare.Has(source.DataverseConcepts))
}

func TestDataverseViaOpen(t *testing.T) {
	srv, _ := dataverseServer(t)
	fetcher := &source.Fetcher{Client: srv.Client(), AllowPrivate: true}

	src, err := source.Open([]string{srv.URL + "/api/v1/dataverses/cbs/contents"}, source.FormatCSV, "", fetcher)
	require.NoError(t, err)
	require.IsType(t, &source.Dataverse{}, src)

	n := 0
	require.NoError(t, src.Read(context.Background(), func(source.Record) error {
		n++
		return nil
	}))
	assert.Equal(t, 2, n)
}

func TestDataverseErrors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/dataverses/cbs/contents", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"ERROR","message":"Can't find dataverse with identifier='cbs'"}`)
	})
	mux.HandleFunc("/api/v1/dataverses/missing/contents", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"OK","data":[{"type":"dataset","persistentUrl":"https://doi.org/10.1/gone"}]}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	fetcher := &source.Fetcher{Client: srv.Client(), AllowPrivate: true}

	noop := func(source.Record) error { return nil }

	err := (&source.Dataverse{Contents: srv.URL + "/api/dataverses/cbs/contents", Fetcher: fetcher}).Read(context.Background(), noop)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Can't find dataverse")

	err = (&source.Dataverse{Contents: srv.URL + "/api/v1/dataverses/missing/contents", Fetcher: fetcher}).Read(context.Background(), noop)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")

	err = (&source.Dataverse{Contents: srv.URL + "/data/cbs.csv", Fetcher: fetcher}).Read(context.Background(), noop)
	assert.Error(t, err)
}

func TestIsDataverse(t *testing.T) {
	assert.True(t, source.IsDataverse("https://portal.odissei.nl/api/v1/dataverses/cbs/contents"))
	assert.True(t, source.IsDataverse("https://demo.dataverse.org/api/dataverses/root/contents"))
	assert.True(t, source.IsDataverse("https://example.org/dv/api/v1/dataverses/cbs/contents"))
	assert.False(t, source.IsDataverse("https://portal.odissei.nl/api/v1/dataverses/cbs"))
	assert.False(t, source.IsDataverse("https://portal.odissei.nl/api/v1/datasets/export"))
	assert.False(t, source.IsDataverse("cbs.csv"))
	assert.False(t, source.IsDataverse("/api/v1/dataverses/cbs/contents"))
}
