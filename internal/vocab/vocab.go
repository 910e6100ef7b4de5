// Package vocab holds the fixed vocabulary of entity types and relation
// names shared by the converter and the linkers.
package vocab

import (
	"strconv"
	"strings"
)

// Namespace is an IRI prefix
type Namespace string

// Term returns the full IRI for a local name in the namespace
func (n Namespace) Term(local string) string {
	return string(n) + local
}

const (
	RDF    Namespace = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	SKOS   Namespace = "http://www.w3.org/2004/02/skos/core#"
	DCT    Namespace = "http://purl.org/dc/terms/"
	XSD    Namespace = "http://www.w3.org/2001/XMLSchema#"
	Schema Namespace = "http://schema.org/"

	POW    Namespace = "http://ldf.fi/schema/warsa/prisoners/"
	Warsa  Namespace = "http://ldf.fi/schema/warsa/"
	Actors Namespace = "http://ldf.fi/schema/warsa/actors/"
	BIOC   Namespace = "http://ldf.fi/schema/bioc/"
	CRM    Namespace = "http://www.cidoc-crm.org/cidoc-crm/"
	FOAF   Namespace = "http://xmlns.com/foaf/0.1/"

	Data  Namespace = "http://ldf.fi/warsa/prisoners/"
	Media Namespace = "http://ldf.fi/warsa/media/"
)

// RDF core terms
var (
	RDFType      = RDF.Term("type")
	RDFStatement = RDF.Term("Statement")
	RDFProperty  = RDF.Term("Property")
	RDFSubject   = RDF.Term("subject")
	RDFPredicate = RDF.Term("predicate")
	RDFObject    = RDF.Term("object")

	SKOSPrefLabel = SKOS.Term("prefLabel")
	DCTSource     = DCT.Term("source")
	XSDDate       = XSD.Term("date")
	ContentURL    = Schema.Term("contentUrl")
)

// Entity classes
var (
	PrisonerRecord = Warsa.Term("PrisonerRecord")
	Person         = Actors.Term("Person")
	SotilaanAani   = Warsa.Term("SotilaanAani")
	PersonDocument = Warsa.Term("PersonDocument")
	Municipality   = Warsa.Term("City")
)

// Person record relations. Literal relations carry the raw text, their
// resolved counterparts point at registry entities.
var (
	GivenNames   = Warsa.Term("given_names")
	FamilyName   = Warsa.Term("family_name")
	OriginalName = POW.Term("original_name")

	DateOfBirth = Warsa.Term("date_of_birth")
	DateOfDeath = POW.Term("date_of_death")

	MunicipalityOfBirth        = Warsa.Term("municipality_of_birth")
	MunicipalityOfBirthLiteral = Warsa.Term("municipality_of_birth_literal")

	MunicipalityOfDomicile        = POW.Term("municipality_of_domicile")
	MunicipalityOfDomicileLiteral = POW.Term("municipality_of_domicile_literal")

	MunicipalityOfResidence        = POW.Term("municipality_of_residence")
	MunicipalityOfResidenceLiteral = POW.Term("municipality_of_residence_literal")

	MunicipalityOfCapture        = POW.Term("municipality_of_capture")
	MunicipalityOfCaptureLiteral = POW.Term("municipality_of_capture_literal")

	MunicipalityOfDeath        = POW.Term("municipality_of_death")
	MunicipalityOfDeathLiteral = POW.Term("municipality_of_death_literal")

	Rank        = POW.Term("rank")
	RankLiteral = POW.Term("rank_literal")

	Occupation        = BIOC.Term("has_occupation")
	OccupationLiteral = POW.Term("occupation_literal")

	Unit        = POW.Term("unit")
	UnitLiteral = POW.Term("unit_literal")

	Location        = POW.Term("location")
	LocationLiteral = POW.Term("location_literal")

	CaptureExplanation = POW.Term("explanation")
	CauseOfDeath       = POW.Term("cause_of_death")
	BurialPlace        = POW.Term("burial_place")
	OtherInformation   = POW.Term("other_information")
	TimeCaptured       = POW.Term("time_captured")
	ReturnedDate       = POW.Term("returned_date")

	MaritalStatus       = POW.Term("marital_status")
	AmountChildren      = POW.Term("amount_children")
	TimeGoneMissing     = POW.Term("time_gone_missing")
	PlaceCaptured       = POW.Term("place_captured")
	PlaceCapturedBattle = POW.Term("place_captured_battle")
	PlaceOfDeath        = POW.Term("death_place")
	DeclaredDeath       = POW.Term("declared_death")
	Photograph          = POW.Term("photograph")
	MotherTongue        = POW.Term("mother_tongue")
	RadioReport         = POW.Term("radio_report")
	WinterWarCardFile   = POW.Term("winterwar_card_file")
	ContinuationWarFile = POW.Term("continuation_war_card_file")
	KaragandaCardFile   = POW.Term("karaganda_card_file")
	Flyer               = POW.Term("flyer")
	Memoirs             = POW.Term("memoirs")

	SotilaanAaniReference  = POW.Term("sotilaan_aani")
	PhotographSotilaanAani = POW.Term("photograph_sotilaan_aani")
	SotilaanAaniMagazine   = Warsa.Term("sotilaan_aani_magazine")
	PersonDocumentRelation = Warsa.Term("person_document")
	PersonalInfoRemoved    = POW.Term("personal_information_removed")
	RankLevel              = Actors.Term("level")
	DocumentsPerson        = CRM.Term("P70_documents")
)

// Registry named graphs on the graph-query endpoint
const (
	GraphRanks          = "http://ldf.fi/warsa/ranks"
	GraphMunicipalities = "http://ldf.fi/warsa/places/municipalities"
	GraphPrisoners      = "http://ldf.fi/warsa/prisoners"
	GraphActors         = "http://ldf.fi/warsa/actors"
)

// LocalName returns the part of iri after its last slash or hash
func LocalName(iri string) string {
	if i := strings.LastIndexAny(iri, "/#"); i >= 0 {
		return iri[i+1:]
	}
	return iri
}

// ReificationIRI names the statement node describing the index-th value
// of relation on record
func ReificationIRI(record, relation string, index int) string {
	return Data.Term(LocalName(record) + "_" + LocalName(relation) + "_" + strconv.Itoa(index) + "_reification_source")
}

// PrisonerIRI mints the record IRI for a prisoner number
func PrisonerIRI(number string) string {
	return Data.Term("prisoner_" + number)
}
