package model

import "time"

// Config holds the complete powlink configuration
type Config struct {
	HTTP         HTTPConfig       `yaml:"http" mapstructure:"http"`
	Retry        RetryConfig      `yaml:"retry" mapstructure:"retry"`
	RateLimiting RateLimitConfig  `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Cache        CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Endpoints    EndpointsConfig  `yaml:"endpoints" mapstructure:"endpoints"`
	Linking      LinkingConfig    `yaml:"linking" mapstructure:"linking"`
	Vocabulary   VocabularyConfig `yaml:"vocabulary" mapstructure:"vocabulary"`
	Matcher      MatcherConfig    `yaml:"matcher" mapstructure:"matcher"`
	Media        MediaConfig      `yaml:"media" mapstructure:"media"`
	Dates        DatesConfig      `yaml:"dates" mapstructure:"dates"`
	Output       OutputConfig     `yaml:"output" mapstructure:"output"`
	Logging      LoggingConfig    `yaml:"logging" mapstructure:"logging"`
}

// HTTPConfig configures outbound HTTP clients
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	HTTPProxy    string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// RetryConfig is the fixed retry budget around transient lookup failures
type RetryConfig struct {
	Attempts int           `yaml:"attempts" mapstructure:"attempts"`
	Backoff  time.Duration `yaml:"backoff" mapstructure:"backoff"`
}

// RateLimitConfig configures per-host politeness
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
}

// CacheConfig configures the lookup cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// EndpointsConfig names the external services
type EndpointsConfig struct {
	SPARQL         string `yaml:"sparql" mapstructure:"sparql"`
	PNR            string `yaml:"pnr" mapstructure:"pnr"`                       // Place name registry ARPA
	Ranks          string `yaml:"ranks" mapstructure:"ranks"`                   // Rank ARPA
	Occupations    string `yaml:"occupations" mapstructure:"occupations"`       // Occupation ARPA
	Municipalities string `yaml:"municipalities" mapstructure:"municipalities"` // Optional ARPA; empty uses the named graph
}

// LinkingConfig configures the deterministic linkers
type LinkingConfig struct {
	CampQuery           string                       `yaml:"camp_query" mapstructure:"camp_query"`
	Remaps              map[string]map[string]string `yaml:"remaps" mapstructure:"remaps"` // Entity type -> raw value -> query value
	OccupationMinScore  float64                      `yaml:"occupation_min_score" mapstructure:"occupation_min_score"`
	RankMinScore        float64                      `yaml:"rank_min_score" mapstructure:"rank_min_score"`
	MunicipalityMinSim  float64                      `yaml:"municipality_min_similarity" mapstructure:"municipality_min_similarity"`
	DeathPlaceTypes     []string                     `yaml:"death_place_types" mapstructure:"death_place_types"`
	LowResolutionRatio  float64                      `yaml:"low_resolution_ratio" mapstructure:"low_resolution_ratio"`
	HighRejectionRatio  float64                      `yaml:"high_rejection_ratio" mapstructure:"high_rejection_ratio"`
	LowercaseOccupation bool                         `yaml:"lowercase_occupation" mapstructure:"lowercase_occupation"`
	PrefetchWorkers     int                          `yaml:"prefetch_workers" mapstructure:"prefetch_workers"` // Below 2 keeps lookups strictly sequential
}

// VocabularyConfig maps target URI prefixes to tiers
type VocabularyConfig struct {
	Primary   []string `yaml:"primary" mapstructure:"primary"`
	Secondary []string `yaml:"secondary" mapstructure:"secondary"`
}

// MatcherConfig configures the probabilistic person matcher
type MatcherConfig struct {
	Seed           int64   `yaml:"seed" mapstructure:"seed"`
	Threshold      float64 `yaml:"threshold" mapstructure:"threshold"`
	SampleSize     int     `yaml:"sample_size" mapstructure:"sample_size"`
	TrainingSize   int     `yaml:"training_size" mapstructure:"training_size"`
	TiePolicy      string  `yaml:"tie_policy" mapstructure:"tie_policy"` // first, all, review
	TieEpsilon     float64 `yaml:"tie_epsilon" mapstructure:"tie_epsilon"`
	Epochs         int     `yaml:"epochs" mapstructure:"epochs"`
	LearningRate   float64 `yaml:"learning_rate" mapstructure:"learning_rate"`
	L2             float64 `yaml:"l2" mapstructure:"l2"`
	BlockPrefix    int     `yaml:"block_prefix" mapstructure:"block_prefix"`
	ComparisonDate string  `yaml:"comparison_date" mapstructure:"comparison_date"` // Alive-at point for a missing death date; empty means today
	TrainingLinks  string  `yaml:"training_links" mapstructure:"training_links"`
	PersonQuery    string  `yaml:"person_query" mapstructure:"person_query"`
}

// MediaConfig configures the document reference passes
type MediaConfig struct {
	MagazineIndex     string            `yaml:"magazine_index" mapstructure:"magazine_index"`
	MagazineThumbBase string            `yaml:"magazine_thumb_base" mapstructure:"magazine_thumb_base"`
	DocumentGlobs     []string          `yaml:"document_globs" mapstructure:"document_globs"`
	DocumentBase      string            `yaml:"document_base" mapstructure:"document_base"`
	DocumentLabels    map[string]string `yaml:"document_labels" mapstructure:"document_labels"`
	DefaultLabel      string            `yaml:"default_label" mapstructure:"default_label"`
}

// DatesConfig bounds embedded date ranges
type DatesConfig struct {
	RangeAfter  string `yaml:"range_after" mapstructure:"range_after"`
	RangeBefore string `yaml:"range_before" mapstructure:"range_before"` // Empty means today
}

// OutputConfig configures rendered artifacts
type OutputConfig struct {
	Documents   string `yaml:"documents" mapstructure:"documents"` // Document resources of the media tasks
	Diagnostics string `yaml:"diagnostics" mapstructure:"diagnostics"`
	Report      string `yaml:"report" mapstructure:"report"`
	MetricsFile string `yaml:"metrics_file" mapstructure:"metrics_file"`
	Verbose     bool   `yaml:"verbose" mapstructure:"verbose"`
}

// LoggingConfig configures zap
type LoggingConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
	File  string `yaml:"file" mapstructure:"file"`
}

// DefaultCampQuery resolves camp names against the prisoners graph
const DefaultCampQuery = `PREFIX ps:<http://ldf.fi/schema/warsa/prisoners/> ` +
	`SELECT * { GRAPH <http://ldf.fi/warsa/prisoners> { ` +
	`VALUES ?place { "<VALUES>" } ` +
	`?id ps:camp_id|ps:captivity_location ?place . } }`

// DefaultPersonQuery projects the canonical persons. Each row binds ?person
// and any of the optional feature variables; rows are merged per person.
const DefaultPersonQuery = `PREFIX foaf: <http://xmlns.com/foaf/0.1/>
PREFIX crm: <http://www.cidoc-crm.org/cidoc-crm/>
PREFIX actors: <http://ldf.fi/schema/warsa/actors/>
PREFIX bioc: <http://ldf.fi/schema/bioc/>
SELECT ?person ?given ?family ?rank ?birth_place ?birth_date ?death_place ?death_date ?unit ?occupation WHERE {
  GRAPH <http://ldf.fi/warsa/actors> {
    ?person a actors:Person ; foaf:familyName ?family .
    OPTIONAL { ?person foaf:firstName ?given }
    OPTIONAL { ?person bioc:has_occupation ?occupation }
  }
  OPTIONAL { ?promotion a actors:Promotion ; crm:P11_had_participant ?person ; actors:hasRank ?rank . }
  OPTIONAL {
    ?birth a crm:E67_Birth ; crm:P98_brought_into_life ?person .
    OPTIONAL { ?birth crm:P7_took_place_at ?birth_place }
    OPTIONAL { ?birth crm:P4_has_time-span/crm:P82a_begin_of_the_begin ?birth_date }
  }
  OPTIONAL {
    ?death a crm:E69_Death ; crm:P100_was_death_of ?person .
    OPTIONAL { ?death crm:P7_took_place_at ?death_place }
    OPTIONAL { ?death crm:P4_has_time-span/crm:P82a_begin_of_the_begin ?death_date }
  }
  OPTIONAL { ?join a actors:Join ; crm:P143_joined ?person ; crm:P144_joined_with ?unit . }
}`

// Entity types with remap tables
const (
	EntityCamp         = "camp"
	EntityMunicipality = "municipality"
	EntityRank         = "rank"
	EntityOccupation   = "occupation"
)

// DefaultConfig returns the configuration used when nothing overrides it
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "powlink/0.1 (+https://github.com/ppiankov/powlink)",
			MaxBodyBytes: 64 << 20,
		},
		Retry: RetryConfig{
			Attempts: 3,
			Backoff:  3 * time.Second,
		},
		RateLimiting: RateLimitConfig{
			RequestsPerSecond: 10,
			Burst:             5,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".powlink-cache",
			MemoryTTL: 1 * time.Hour,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Endpoints: EndpointsConfig{
			SPARQL:      "http://localhost:3030/warsa/sparql",
			PNR:         "http://demo.seco.tkk.fi/arpa/pnr_municipality",
			Ranks:       "http://demo.seco.tkk.fi/arpa/warsa_actor_ranks",
			Occupations: "http://demo.seco.tkk.fi/arpa/warsa_occupations",
		},
		Linking: LinkingConfig{
			CampQuery: DefaultCampQuery,
			Remaps: map[string]map[string]string{
				EntityCamp: {
					"Siestarjoki": "Siestarjoki, ven. Sestroretsk",
					"Karhumäki":   "Karhumäki, evakuointipiste",
					"Sorokka":     "Sorokka ven. Belomorsk",
				},
				EntityMunicipality: {
					"Siestarjoki": "Siestarjoki, ven. Sestroretsk",
				},
			},
			OccupationMinScore: 0.84,
			MunicipalityMinSim: 0.9,
			DeathPlaceTypes: []string{
				"http://ldf.fi/pnr-schema#place_type_540",
				"http://ldf.fi/pnr-schema#place_type_550",
			},
			LowResolutionRatio:  0.5,
			HighRejectionRatio:  0.25,
			LowercaseOccupation: true,
		},
		Vocabulary: VocabularyConfig{
			Primary:   []string{"http://ldf.fi/warsa/"},
			Secondary: []string{"http://ldf.fi/pnr/"},
		},
		Matcher: MatcherConfig{
			Seed:           42,
			Threshold:      0.8,
			SampleSize:     100000,
			TrainingSize:   500000,
			TiePolicy:      "first",
			TieEpsilon:     0.01,
			Epochs:         200,
			LearningRate:   0.5,
			L2:             0.001,
			BlockPrefix:    4,
			ComparisonDate: "1945-12-31",
			TrainingLinks:  "data/person_links.json",
			PersonQuery:    DefaultPersonQuery,
		},
		Media: MediaConfig{
			MagazineIndex:     "data/SÄ-indeksi.csv",
			MagazineThumbBase: "https://static.sotasampo.fi/sotilaan_aani",
			DocumentGlobs: []string{
				"data/person_documents/returned/*.pdf",
				"data/person_documents/winterwar_interrogation/*.pdf",
				"data/person_documents/winterwar_registration/*.pdf",
			},
			DocumentBase: "https://static.sotasampo.fi/person_documents",
			DocumentLabels: map[string]string{
				"returned":                "Neuvostoliittolainen palautettujen henkilömappi",
				"winterwar_registration":  "Neuvostoliittolainen vangittujen ja internoitujen henkilömappi",
				"winterwar_interrogation": "Neuvostoliittolainen kuulustelulomake",
			},
			DefaultLabel: "Dokumentti",
		},
		Dates: DatesConfig{
			RangeAfter: "1939-11-30",
		},
		Output: OutputConfig{
			Diagnostics: "diagnostics.csv",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
