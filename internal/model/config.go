package model

import (
	"os"
	"path/filepath"
	"time"
)

// Config is the full pairlens configuration tree. Populated from defaults,
// then ~/.pairlens/config.yaml, then PAIRLENS_* environment variables, then
// CLI flags (highest priority).
type Config struct {
	Corpus  CorpusConfig  `yaml:"corpus"`
	HTTP    HTTPConfig    `yaml:"http"`
	Probe   ProbeConfig   `yaml:"probe"`
	Storage StorageConfig `yaml:"storage"`
	Submit  SubmitConfig  `yaml:"submit"`
	LLM     LLMConfig     `yaml:"llm"`
	Output  OutputConfig  `yaml:"output"`
}

// CorpusConfig locates the hosted image corpus.
type CorpusConfig struct {
	// BaseURL is the root under which <dataset>/<summarySet>/pair<N>/ lives.
	BaseURL string `yaml:"base_url"`

	// Mode selects the existence strategy: "probe" for servers that answer
	// per-resource requests, "manifest" for static hosts with no listing.
	Mode string `yaml:"mode"`

	// ManifestPath optionally points at a YAML manifest overriding the
	// compiled-in image table (manifest mode only).
	ManifestPath string `yaml:"manifest_path"`
}

// HTTPConfig configures outbound HTTP behavior shared by probing and
// submission.
type HTTPConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

// ProbeConfig bounds the discovery scan.
type ProbeConfig struct {
	// MaxPairNumber bounds the pair<N> directories checked per summary set.
	MaxPairNumber int `yaml:"max_pair_number"`

	// MaxNumericImage bounds the "<n>.png" style candidate filenames.
	MaxNumericImage int `yaml:"max_numeric_image"`

	// MaxNamedImage bounds the "chart<n>"/"image<n>" candidate filenames.
	MaxNamedImage int `yaml:"max_named_image"`

	// MaxImagesPerDir stops candidate probing once this many images resolve.
	MaxImagesPerDir int `yaml:"max_images_per_dir"`

	// Concurrency caps in-flight probes during fan-out.
	Concurrency int `yaml:"concurrency"`

	// CacheTTL keeps probe verdicts warm across resolution passes.
	CacheTTL time.Duration `yaml:"cache_ttl"`

	// RequestsPerSecond rate-limits probes per host. Zero disables limiting.
	RequestsPerSecond float64 `yaml:"requests_per_second"`

	// RespectRobots consults robots.txt before probing non-loopback hosts.
	RespectRobots bool `yaml:"respect_robots"`

	// CacheBust appends ?v=<millis> to presentation URLs.
	CacheBust bool `yaml:"cache_bust"`
}

// StorageConfig locates the durable local evaluation state.
type StorageConfig struct {
	// StatePath is the JSON blob holding the whole evaluation map.
	StatePath string `yaml:"state_path"`
}

// SubmitConfig configures the remote collection endpoint.
type SubmitConfig struct {
	// EndpointURL receives completed pair evaluations as HTTP POST.
	EndpointURL string `yaml:"endpoint_url"`

	Timeout time.Duration `yaml:"timeout"`
}

// LLMConfig configures the optional report summarizer. Disabled unless a
// provider is set; never affects resolution, state, or submission.
type LLMConfig struct {
	Provider  string `yaml:"provider"` // "openai", "ollama", "" (disabled)
	Model     string `yaml:"model"`
	APIKey    string `yaml:"api_key"`
	BaseURL   string `yaml:"base_url"`
	Timeout   int    `yaml:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens"`
}

// OutputConfig controls CLI output.
type OutputConfig struct {
	Verbose bool `yaml:"verbose"`
}

// DefaultConfig returns the built-in defaults. Probe bounds mirror the
// authored corpus layout: pair directories up to pair20, numeric image names
// up to 30, chartN/imageN names up to 15.
func DefaultConfig() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	return &Config{
		Corpus: CorpusConfig{
			BaseURL: "http://localhost:8080/pairs",
			Mode:    "probe",
		},
		HTTP: HTTPConfig{
			Timeout:   3 * time.Second,
			UserAgent: "pairlens/0.1 (+https://github.com/ppiankov/pairlens)",
		},
		Probe: ProbeConfig{
			MaxPairNumber:     20,
			MaxNumericImage:   30,
			MaxNamedImage:     15,
			MaxImagesPerDir:   10,
			Concurrency:       8,
			CacheTTL:          5 * time.Minute,
			RequestsPerSecond: 20,
			RespectRobots:     true,
			CacheBust:         false,
		},
		Storage: StorageConfig{
			StatePath: filepath.Join(home, ".pairlens", "evaluations.json"),
		},
		Submit: SubmitConfig{
			EndpointURL: "",
			Timeout:     10 * time.Second,
		},
		LLM: LLMConfig{
			Provider:  "",
			Timeout:   30,
			MaxTokens: 1000,
		},
		Output: OutputConfig{},
	}
}
