// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "genocode/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// LiteratureConfig holds settings for the literature linking stage.
type LiteratureConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// MaxResults is the maximum number of articles linked per study (default 20).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`

	// EnableOpenAlex controls whether the OpenAlex backend is used.
	EnableOpenAlex bool `json:"enable_openalex" yaml:"enable_openalex" mapstructure:"enable_openalex"`

	// EnableSemanticScholar controls whether the Semantic Scholar backend is used.
	EnableSemanticScholar bool `json:"enable_semantic_scholar" yaml:"enable_semantic_scholar" mapstructure:"enable_semantic_scholar"`

	// EnableArxiv controls whether the arXiv backend is used.
	EnableArxiv bool `json:"enable_arxiv" yaml:"enable_arxiv" mapstructure:"enable_arxiv"`

	// SemanticScholarAPIKey is an optional API key for higher rate limits.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty" mapstructure:"semantic_scholar_api_key"`

	// OpenAlexEmail is sent as mailto for OpenAlex polite pool access.
	OpenAlexEmail string `json:"openalex_email,omitempty" yaml:"openalex_email,omitempty" mapstructure:"openalex_email"`

	// InterBackendDelay is the delay between API calls to different backends (default 1s).
	InterBackendDelay time.Duration `json:"inter_backend_delay" yaml:"inter_backend_delay" mapstructure:"inter_backend_delay"`

	// RecencyBiasWindow is the time window for boosting recent articles (default 5 years).
	RecencyBiasWindow time.Duration `json:"recency_bias_window" yaml:"recency_bias_window" mapstructure:"recency_bias_window"`
}

// StoreConfig holds settings for the subject data store.
type StoreConfig struct {
	// DataDir is the base directory for persisted data (contains index/).
	DataDir string `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`

	// PseudonymSalt is mixed into subject identifiers before hashing.
	// When empty the store generates a random salt and keeps it in the
	// database. Changing it orphans every stored subject.
	PseudonymSalt string `json:"pseudonym_salt,omitempty" yaml:"pseudonym_salt,omitempty" mapstructure:"pseudonym_salt"`

	// ConsentVersion is the consent text version a subject must have
	// accepted before data is stored (default "1").
	ConsentVersion string `json:"consent_version" yaml:"consent_version" mapstructure:"consent_version"`

	// MaxResults is the default maximum number of article query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// ImportConfig holds settings for raw genotype file import.
type ImportConfig struct {
	// MaxBytes caps the size of an uploaded raw file (default 64 MiB).
	MaxBytes int64 `json:"max_bytes" yaml:"max_bytes" mapstructure:"max_bytes"`
}

// ReportConfig holds settings for synthetic distribution reports.
type ReportConfig struct {
	// SampleSize is the number of synthetic samples drawn per genotype group (default 1000).
	SampleSize int `json:"sample_size" yaml:"sample_size" mapstructure:"sample_size"`

	// Bins is the number of histogram edges spanning the plotted range (default 30).
	Bins int `json:"bins" yaml:"bins" mapstructure:"bins"`

	// Seed makes synthetic samples reproducible. Zero derives a seed from the study ID.
	Seed uint64 `json:"seed" yaml:"seed" mapstructure:"seed"`
}

// ArchiveBackend identifies where raw uploads are archived.
type ArchiveBackend string

const (
	ArchiveNone ArchiveBackend = "none"
	ArchiveFS   ArchiveBackend = "fs"
	ArchiveS3   ArchiveBackend = "s3"
)

// ArchiveConfig holds settings for raw upload archiving.
type ArchiveConfig struct {
	// Backend selects the archive: none, fs, or s3.
	Backend ArchiveBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// Dir is the filesystem archive root (fs backend).
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// Bucket is the S3 bucket name (s3 backend).
	Bucket string `json:"bucket" yaml:"bucket" mapstructure:"bucket"`

	// Region is the AWS region; empty uses the SDK default chain.
	Region string `json:"region,omitempty" yaml:"region,omitempty" mapstructure:"region"`

	// Endpoint overrides the S3 endpoint (e.g. LocalStack or MinIO).
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty" mapstructure:"endpoint"`
}

// EventsBackend identifies the transport for upload notifications.
type EventsBackend string

const (
	EventsNone  EventsBackend = "none"
	EventsKafka EventsBackend = "kafka"
	EventsSQS   EventsBackend = "sqs"
)

// EventsConfig holds settings for event publishing.
type EventsConfig struct {
	// Backend selects the transport: none, kafka, or sqs.
	Backend EventsBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// Brokers lists Kafka broker addresses.
	Brokers []string `json:"brokers,omitempty" yaml:"brokers,omitempty" mapstructure:"brokers"`

	// Topic is the Kafka topic.
	Topic string `json:"topic,omitempty" yaml:"topic,omitempty" mapstructure:"topic"`

	// QueueName is the SQS queue name, resolved to a URL at startup.
	QueueName string `json:"queue_name,omitempty" yaml:"queue_name,omitempty" mapstructure:"queue_name"`

	// Region is the AWS region for SQS.
	Region string `json:"region,omitempty" yaml:"region,omitempty" mapstructure:"region"`

	// Endpoint overrides the SQS endpoint.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty" mapstructure:"endpoint"`

	// Source is the CloudEvents source attribute (default "genocode").
	Source string `json:"source" yaml:"source" mapstructure:"source"`
}

// ServerConfig holds settings for the HTTP service.
type ServerConfig struct {
	// Addr is the listen address (default ":8050").
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// RefreshSchedule is a cron expression for literature refreshes;
	// empty disables the refresh job.
	RefreshSchedule string `json:"refresh_schedule" yaml:"refresh_schedule" mapstructure:"refresh_schedule"`

	// WatchCatalog reloads the catalog file when it changes.
	WatchCatalog bool `json:"watch_catalog" yaml:"watch_catalog" mapstructure:"watch_catalog"`

	// ShutdownTimeout bounds graceful shutdown (default 10s).
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// Config groups all stage configurations.
type Config struct {
	// CatalogPath is a YAML or TOML trait catalog; empty uses the built-in catalog.
	CatalogPath string `json:"catalog" yaml:"catalog" mapstructure:"catalog"`

	Literature LiteratureConfig `json:"literature" yaml:"literature" mapstructure:"literature"`
	Store      StoreConfig      `json:"store" yaml:"store" mapstructure:"store"`
	Import     ImportConfig     `json:"import" yaml:"import" mapstructure:"import"`
	Report     ReportConfig     `json:"report" yaml:"report" mapstructure:"report"`
	Archive    ArchiveConfig    `json:"archive" yaml:"archive" mapstructure:"archive"`
	Events     EventsConfig     `json:"events" yaml:"events" mapstructure:"events"`
	Server     ServerConfig     `json:"server" yaml:"server" mapstructure:"server"`
}
