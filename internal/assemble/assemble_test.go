package assemble

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/powlink/internal/audit"
	"github.com/ppiankov/powlink/internal/graph"
	"github.com/ppiankov/powlink/internal/model"
	"github.com/ppiankov/powlink/internal/vocab"
)

const kapteeni = "http://ldf.fi/warsa/actors/ranks/Kapteeni"

func TestAssemble_DedupesAndReifies(t *testing.T) {
	record := vocab.PrisonerIRI("7")

	a := model.NewLinkSet()
	a.Add(model.Link{Record: record, Relation: vocab.Rank, Target: kapteeni, Source: "Kansallisarkisto; Sotilaan Ääni"})
	b := model.NewLinkSet()
	b.Add(model.Link{Record: record, Relation: vocab.Rank, Target: kapteeni})
	b.Add(model.Link{Record: vocab.PrisonerIRI("8"), Relation: vocab.Rank, Target: kapteeni})

	g := Assemble(a, b)

	link := graph.T(record, vocab.Rank, graph.IRI(kapteeni))
	assert.True(t, g.Has(link))
	assert.Equal(t, []string{"Kansallisarkisto", "Sotilaan Ääni"}, g.Sources(link))

	node := vocab.Data.Term("prisoner_7_rank_0_reification_source")
	assert.True(t, g.Has(graph.T(node, vocab.RDFType, graph.IRI(vocab.RDFStatement))))

	// Two links plus six statement triples for the cited one
	assert.Equal(t, 2+6, g.Len())
}

func TestAssemble_Empty(t *testing.T) {
	assert.Equal(t, 0, Assemble().Len())
	assert.Equal(t, 0, Assemble(nil, model.NewLinkSet()).Len())
}

const magazineCSV = `VIITE,HAKEMISTO,TIEDOSTONIMI
SÄ 1942/12,1942,12
SÄ 1942/12,1942,12b
SÄ 1943/1,1943,
SÄ 1943/5,1943,5
`

func TestReadMagazineIndex(t *testing.T) {
	idx, err := ReadMagazineIndex(strings.NewReader(magazineCSV), "https://static.sotasampo.fi/sotilaan_aani/")
	require.NoError(t, err)

	issue := vocab.Media.Term("sotilaan_aani_1942_12")
	assert.Equal(t, []string{issue, vocab.Media.Term("sotilaan_aani_1942_12b")}, idx.Issues(" SÄ 1942/12 "))
	assert.Empty(t, idx.Issues("SÄ 1943/1"), "rows with an empty cell are dropped")

	docs := idx.Documents()
	label, ok := docs.Value(graph.IRI(issue), vocab.SKOSPrefLabel)
	require.True(t, ok)
	assert.Equal(t, "Sotilaan Ääni 1942/12", label.Value)
	assert.True(t, docs.Has(graph.T(issue, vocab.ContentURL, graph.IRI("https://static.sotasampo.fi/sotilaan_aani/1942/Thumbs/12.jpg"))))
	assert.True(t, docs.Has(graph.T(issue, vocab.RDFType, graph.IRI(vocab.SotilaanAani))))
}

func TestReadMagazineIndex_MissingColumn(t *testing.T) {
	_, err := ReadMagazineIndex(strings.NewReader("VIITE,HAKEMISTO\nx,y\n"), "")
	assert.ErrorContains(t, err, "TIEDOSTONIMI")
}

func TestLinkMagazine(t *testing.T) {
	idx, err := ReadMagazineIndex(strings.NewReader(magazineCSV), "https://static.sotasampo.fi/sotilaan_aani")
	require.NoError(t, err)

	records := graph.New()
	records.Add(graph.T(vocab.PrisonerIRI("1"), vocab.SotilaanAaniReference, graph.Literal("SÄ 1942/12")))
	records.Add(graph.T(vocab.PrisonerIRI("2"), vocab.PhotographSotilaanAani, graph.Literal("SÄ 1943/5 ")))
	records.Add(graph.T(vocab.PrisonerIRI("3"), vocab.SotilaanAaniReference, graph.Literal("SÄ 1944/9")))

	diag := audit.NewDiagnostics()
	rec := audit.NewRecorder(string(model.TaskMediaMagazine), diag, nil, nil)
	links := LinkMagazine(records, idx, rec, nil)

	assert.Equal(t, 3, links.Len())
	assert.Equal(t, model.PassStats{Name: "media-magazine", Accepted: 2, Unresolved: 1}, rec.Stats())

	entries := diag.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, vocab.PrisonerIRI("3"), entries[0].Record)
	assert.Equal(t, "SÄ 1944/9", entries[0].Value)
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("%PDF"), 0644))
}

func TestPersonDocuments(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "returned", "12_Korhonen.pdf"))
	writeFile(t, filepath.Join(dir, "returned", "scan.pdf"))
	writeFile(t, filepath.Join(dir, "winterwar_interrogation", "345_Virtanen_Matti.pdf"))
	writeFile(t, filepath.Join(dir, "unknown_set", "9_x.pdf"))

	cfg := model.DefaultConfig().Media
	cfg.DocumentGlobs = []string{
		filepath.Join(dir, "returned", "*.pdf"),
		filepath.Join(dir, "winterwar_interrogation", "*.pdf"),
		filepath.Join(dir, "unknown_set", "*.pdf"),
	}

	rec := audit.NewRecorder(string(model.TaskPersonDocuments), nil, nil, nil)
	links, docs, err := NewPersonDocuments(cfg, nil).Run(rec)
	require.NoError(t, err)

	assert.Equal(t, 3, links.Len())
	assert.Equal(t, model.PassStats{Name: "person-documents", Accepted: 3, Unresolved: 1}, rec.Stats())

	doc := vocab.Media.Term("returned_12")
	assert.True(t, docs.Has(graph.T(doc, vocab.ContentURL, graph.IRI("https://static.sotasampo.fi/person_documents/returned/12_Korhonen.pdf"))))
	label, _ := docs.Value(graph.IRI(doc), vocab.SKOSPrefLabel)
	assert.Equal(t, "Neuvostoliittolainen palautettujen henkilömappi 12", label.Value)

	other, _ := docs.Value(graph.IRI(vocab.Media.Term("unknown_set_9")), vocab.SKOSPrefLabel)
	assert.Equal(t, "Dokumentti 9", other.Value)

	record := links.Links()[0]
	assert.Equal(t, vocab.PersonDocumentRelation, record.Relation)
}

func TestPersonDocuments_BadPattern(t *testing.T) {
	cfg := model.MediaConfig{DocumentGlobs: []string{"[-"}}
	_, _, err := NewPersonDocuments(cfg, nil).Run(nil)
	assert.Error(t, err)
}
