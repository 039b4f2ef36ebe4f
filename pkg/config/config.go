package config

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"

	"github.com/BurntSushi/toml"
)

// Embedded default configuration
//
//go:embed default_config.toml
var embeddedConfigData []byte

// Config holds the immutable classification tables and bounds the engine runs
// with. It is constructed once at startup and never mutated afterwards.
type Config struct {
	Graph        GraphConfig        `toml:"graph"`
	Export       ExportConfig       `toml:"export"`
	Roles        RoleConfig         `toml:"roles"`
	Patterns     PatternConfig      `toml:"patterns"`
	Thresholds   ThresholdConfig    `toml:"thresholds"`
	Dependencies DependencyPatterns `toml:"dependencies"`

	compiled compiledPatterns
}

// GraphConfig bounds graph construction and traversal.
type GraphConfig struct {
	MaxNodes           int `toml:"max_nodes"`
	MaxEdges           int `toml:"max_edges"`
	MaxDepth           int `toml:"max_depth"`
	CandidateExpansion int `toml:"candidate_expansion"`
	PairCap            int `toml:"pair_cap"`
	PathsPerPair       int `toml:"paths_per_pair"`
}

// ExportConfig bounds the exported topology.
type ExportConfig struct {
	LimitNodes int `toml:"limit_nodes"`
	LimitEdges int `toml:"limit_edges"`
}

// RoleConfig holds the annotation sets driving role classification.
type RoleConfig struct {
	EntryHTTPAnnotations  []string `toml:"entry_http_annotations"`
	EntryMQAnnotations    []string `toml:"entry_mq_annotations"`
	EntryJobAnnotations   []string `toml:"entry_job_annotations"`
	AuthAnnotations       []string `toml:"auth_annotations"`
	ValidationAnnotations []string `toml:"validation_annotations"`
	RateAnnotations       []string `toml:"rate_annotations"`
}

// PatternConfig holds regex sources for body-text classification.
type PatternConfig struct {
	ValidateCall  string `toml:"validate_call"`
	SanitizeCall  string `toml:"sanitize_call"`
	AuditCall     string `toml:"audit_call"`
	SecretWords   string `toml:"secret_words"`
	LogCall       string `toml:"log_call"`
	SerializeCall string `toml:"serialize_call"`
	ExceptionLeak string `toml:"exception_leak"`
	SinkDB        string `toml:"sink_db"`
	SinkFS        string `toml:"sink_fs"`
	SinkHTTP      string `toml:"sink_http"`
}

// ThresholdConfig fixes the numeric severity cutoffs per metric.
type ThresholdConfig struct {
	ECIMedium           float64 `toml:"eci_medium"`
	ECIHigh             float64 `toml:"eci_high"`
	IDSHigh             float64 `toml:"ids_high"`
	IDSCritical         float64 `toml:"ids_critical"`
	PPIHighDistance     int     `toml:"ppi_high_distance"`
	PPICriticalDistance int     `toml:"ppi_critical_distance"`
	MPSPMedium          float64 `toml:"mpsp_medium"`
	MPSPHigh            float64 `toml:"mpsp_high"`
	TPCMediumHops       int     `toml:"tpc_medium_hops"`
	TPCHighHops         int     `toml:"tpc_high_hops"`
	TPCCriticalHops     int     `toml:"tpc_critical_hops"`
	TCPDMediumHops      int     `toml:"tcpd_medium_hops"`
	TCPDHighHops        int     `toml:"tcpd_high_hops"`
	PADMediumBoundaries int     `toml:"pad_medium_boundaries"`
	PADHighBoundaries   int     `toml:"pad_high_boundaries"`
	OSDROtherMedium     int     `toml:"osdr_other_medium"`
	OSDROtherHigh       int     `toml:"osdr_other_high"`
	VFCPLowCoverage     float64 `toml:"vfcp_low_coverage"`
	VFCPHighDuplication float64 `toml:"vfcp_high_duplication"`
	EntropyMedium       float64 `toml:"entropy_medium"`
	EntropyHigh         float64 `toml:"entropy_high"`
}

// DependencyPatterns holds classification tables for the dependency metric.
type DependencyPatterns struct {
	BaselineGroups   []string `toml:"baseline_groups"`
	SecurityKeywords []string `toml:"security_keywords"`
}

type compiledPatterns struct {
	validateCall  *regexp.Regexp
	sanitizeCall  *regexp.Regexp
	auditCall     *regexp.Regexp
	secretWords   *regexp.Regexp
	logCall       *regexp.Regexp
	serializeCall *regexp.Regexp
	exceptionLeak *regexp.Regexp
	sinkDB        *regexp.Regexp
	sinkFS        *regexp.Regexp
	sinkHTTP      *regexp.Regexp

	entryHTTP  map[string]bool
	entryMQ    map[string]bool
	entryJob   map[string]bool
	auth       map[string]bool
	validation map[string]bool
	rateLimit  map[string]bool
}

// DefaultConfig returns the embedded configuration with optional local overrides.
// It always starts with the embedded tables, then prefers a local config.toml.
func DefaultConfig() (*Config, error) {
	localConfigPaths := []string{
		"config.toml",
		"../config.toml",
		"../../config.toml",
	}

	for _, path := range localConfigPaths {
		if _, err := os.Stat(path); err == nil {
			local, err := LoadFromFile(path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to load local config %s: %v\n", path, err)
				break
			}
			return local, nil
		}
	}

	cfg, err := parse(embeddedConfigData)
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded config: %w", err)
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a TOML file.
func LoadFromFile(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath) // #nosec G304 - operator-supplied config path
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", filepath, err)
	}
	cfg, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", filepath, err)
	}
	return cfg, nil
}

func parse(data []byte) (*Config, error) {
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.compile(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// compile builds the frozen lookup tables. Runs once at load; afterwards the
// config is read-only.
func (c *Config) compile() error {
	p := &c.compiled

	var err error
	compileOne := func(name, src string) *regexp.Regexp {
		if err != nil {
			return nil
		}
		var re *regexp.Regexp
		re, err = regexp.Compile(src)
		if err != nil {
			err = fmt.Errorf("bad pattern %s: %w", name, err)
		}
		return re
	}

	p.validateCall = compileOne("validate_call", c.Patterns.ValidateCall)
	p.sanitizeCall = compileOne("sanitize_call", c.Patterns.SanitizeCall)
	p.auditCall = compileOne("audit_call", c.Patterns.AuditCall)
	p.secretWords = compileOne("secret_words", c.Patterns.SecretWords)
	p.logCall = compileOne("log_call", c.Patterns.LogCall)
	p.serializeCall = compileOne("serialize_call", c.Patterns.SerializeCall)
	p.exceptionLeak = compileOne("exception_leak", c.Patterns.ExceptionLeak)
	p.sinkDB = compileOne("sink_db", c.Patterns.SinkDB)
	p.sinkFS = compileOne("sink_fs", c.Patterns.SinkFS)
	p.sinkHTTP = compileOne("sink_http", c.Patterns.SinkHTTP)
	if err != nil {
		return err
	}

	p.entryHTTP = toSet(c.Roles.EntryHTTPAnnotations)
	p.entryMQ = toSet(c.Roles.EntryMQAnnotations)
	p.entryJob = toSet(c.Roles.EntryJobAnnotations)
	p.auth = toSet(c.Roles.AuthAnnotations)
	p.validation = toSet(c.Roles.ValidationAnnotations)
	p.rateLimit = toSet(c.Roles.RateAnnotations)
	return nil
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}

// EntryKind returns "http", "mq" or "job" when the annotation set marks an
// externally reachable entry, or "" otherwise.
func (c *Config) EntryKind(annotations []string) string {
	for _, ann := range annotations {
		if c.compiled.entryHTTP[ann] {
			return "http"
		}
	}
	for _, ann := range annotations {
		if c.compiled.entryMQ[ann] {
			return "mq"
		}
	}
	for _, ann := range annotations {
		if c.compiled.entryJob[ann] {
			return "job"
		}
	}
	return ""
}

// HasAuthAnnotation reports whether any annotation is an auth/authz marker.
func (c *Config) HasAuthAnnotation(annotations []string) bool {
	for _, ann := range annotations {
		if c.compiled.auth[ann] {
			return true
		}
	}
	return false
}

// HasValidationAnnotation reports whether any annotation is a validation marker.
func (c *Config) HasValidationAnnotation(annotations []string) bool {
	for _, ann := range annotations {
		if c.compiled.validation[ann] {
			return true
		}
	}
	return false
}

// HasRateAnnotation reports whether any annotation is a rate-limiting marker.
func (c *Config) HasRateAnnotation(annotations []string) bool {
	for _, ann := range annotations {
		if c.compiled.rateLimit[ann] {
			return true
		}
	}
	return false
}

// MatchesValidateCall reports whether body text contains an explicit validation call.
func (c *Config) MatchesValidateCall(body string) bool {
	return c.compiled.validateCall.MatchString(body)
}

// MatchesSanitizeCall reports whether body text contains a sanitizing call.
func (c *Config) MatchesSanitizeCall(body string) bool {
	return c.compiled.sanitizeCall.MatchString(body)
}

// MatchesAuditCall reports whether body text contains audit logging.
func (c *Config) MatchesAuditCall(body string) bool {
	return c.compiled.auditCall.MatchString(body)
}

// SecretWordPattern returns the compiled secret-identifier pattern.
func (c *Config) SecretWordPattern() *regexp.Regexp { return c.compiled.secretWords }

// LogCallPattern returns the compiled logging-egress pattern.
func (c *Config) LogCallPattern() *regexp.Regexp { return c.compiled.logCall }

// SerializeCallPattern returns the compiled serialization-egress pattern.
func (c *Config) SerializeCallPattern() *regexp.Regexp { return c.compiled.serializeCall }

// ExceptionLeakPattern returns the compiled exception-detail leak pattern.
func (c *Config) ExceptionLeakPattern() *regexp.Regexp { return c.compiled.exceptionLeak }

// SinkKind classifies a method body as a sensitive sink. Returns the sink kind
// ("db", "fs", "http"), whether the sink is privileged, and whether any sink
// pattern matched at all.
func (c *Config) SinkKind(body string) (kind string, privileged bool, ok bool) {
	if c.compiled.sinkDB.MatchString(body) {
		return "db", true, true
	}
	if c.compiled.sinkFS.MatchString(body) {
		return "fs", true, true
	}
	if c.compiled.sinkHTTP.MatchString(body) {
		return "http", false, true
	}
	return "", false, false
}
