// Package tzconfig loads the settings shared by the tzlookup CLI and service.
package tzconfig

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/forestrie/go-tzlookup/tzindex"
	"gopkg.in/yaml.v3"
)

const EnvPrefix = "TZLOOKUP_"

var (
	ErrNoTableSource    = errors.New("tzconfig: one of table_path or blob_path must be set")
	ErrTwoTableSources  = errors.New("tzconfig: table_path and blob_path are mutually exclusive")
	ErrNoBlobContainer  = errors.New("tzconfig: blob_path requires blob_container")
	ErrNoBlobAccount    = errors.New("tzconfig: blob_path requires blob_account, blob_resource_group and blob_subscription unless blob_emulator is set")
	ErrBadLogLevel      = errors.New("tzconfig: log_level must be one of DEBUG, INFO, WARN, ERROR")
	ErrBadWorkers       = errors.New("tzconfig: workers must be at least 1")
	ErrBadMaxBatch      = errors.New("tzconfig: max_batch must be at least 1")
	ErrBadEnvValue      = errors.New("tzconfig: invalid environment value")
	ErrUnknownPolicy    = errors.New("tzconfig: unknown batch policy")
	ErrListenAddrNeeded = errors.New("tzconfig: listen_addr must not be empty")
)

type Config struct {
	// TablePath is a local V1 table, sealed or not.
	TablePath string `yaml:"table_path"`

	// BlobContainer and BlobPath locate the table in Azure blob storage.
	BlobContainer string `yaml:"blob_container"`
	BlobPath      string `yaml:"blob_path"`

	// BlobAccount, BlobResourceGroup and BlobSubscription identify the
	// storage account.
	BlobAccount       string `yaml:"blob_account"`
	BlobResourceGroup string `yaml:"blob_resource_group"`
	BlobSubscription  string `yaml:"blob_subscription"`

	// BlobEmulator reads from a local Azurite emulator, configured through
	// the AZURITE_* environment, instead of a storage account. Development
	// only.
	BlobEmulator bool `yaml:"blob_emulator"`

	// SealPublicKey is a PEM encoded ECDSA public key. When set, only tables
	// sealed by the matching private key are accepted.
	SealPublicKey string `yaml:"seal_public_key"`

	// VerifyOnLoad walks the whole table once at startup.
	VerifyOnLoad bool `yaml:"verify_on_load"`

	LogLevel string `yaml:"log_level"`

	// Policy is "element" or "strict", see tzindex.BatchPolicy.
	Policy   string `yaml:"policy"`
	Workers  int    `yaml:"workers"`
	MaxBatch int    `yaml:"max_batch"`

	ListenAddr string `yaml:"listen_addr"`
}

func Default() Config {
	return Config{
		LogLevel:   "INFO",
		Policy:     tzindex.PolicyElement.String(),
		Workers:    runtime.NumCPU(),
		MaxBatch:   100000,
		ListenAddr: ":8080",
	}
}

// Load reads the optional YAML file at path over Default, applies TZLOOKUP_
// environment overrides and validates the result.
func Load(path string) (Config, error) {
	return LoadWithEnv(path, os.LookupEnv)
}

// LoadWithEnv is Load with an explicit environment.
func LoadWithEnv(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := Decode(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Decode overlays the YAML document in data onto cfg. Unknown keys are an
// error.
func Decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"TABLE_PATH":          &c.TablePath,
		"BLOB_CONTAINER":      &c.BlobContainer,
		"BLOB_PATH":           &c.BlobPath,
		"BLOB_ACCOUNT":        &c.BlobAccount,
		"BLOB_RESOURCE_GROUP": &c.BlobResourceGroup,
		"BLOB_SUBSCRIPTION":   &c.BlobSubscription,
		"SEAL_PUBLIC_KEY":     &c.SealPublicKey,
		"LOG_LEVEL":           &c.LogLevel,
		"POLICY":              &c.Policy,
		"LISTEN_ADDR":         &c.ListenAddr,
	}
	for name, dst := range strs {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"WORKERS":   &c.Workers,
		"MAX_BATCH": &c.MaxBatch,
	}
	for name, dst := range ints {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s%s=%q", ErrBadEnvValue, EnvPrefix, name, v)
		}
		*dst = n
	}

	bools := map[string]*bool{
		"VERIFY_ON_LOAD": &c.VerifyOnLoad,
		"BLOB_EMULATOR":  &c.BlobEmulator,
	}
	for name, dst := range bools {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s%s=%q", ErrBadEnvValue, EnvPrefix, name, v)
		}
		*dst = b
	}
	return nil
}

// Validate checks the settings needed to resolve anything. ListenAddr is
// checked separately by ValidateServe.
func (c *Config) Validate() error {
	switch {
	case c.TablePath == "" && c.BlobPath == "":
		return ErrNoTableSource
	case c.TablePath != "" && c.BlobPath != "":
		return ErrTwoTableSources
	case c.BlobPath != "" && c.BlobContainer == "":
		return ErrNoBlobContainer
	case c.BlobPath != "" && !c.BlobEmulator &&
		(c.BlobAccount == "" || c.BlobResourceGroup == "" || c.BlobSubscription == ""):
		return ErrNoBlobAccount
	}

	c.LogLevel = strings.ToUpper(c.LogLevel)
	switch c.LogLevel {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		return fmt.Errorf("%w: %q", ErrBadLogLevel, c.LogLevel)
	}

	if _, err := tzindex.ParseBatchPolicy(c.Policy); err != nil {
		return fmt.Errorf("%w: %q", ErrUnknownPolicy, c.Policy)
	}
	if c.Workers < 1 {
		return ErrBadWorkers
	}
	if c.MaxBatch < 1 {
		return ErrBadMaxBatch
	}
	return nil
}

func (c *Config) ValidateServe() error {
	if c.ListenAddr == "" {
		return ErrListenAddrNeeded
	}
	return nil
}

// BatchPolicy returns the parsed policy. It is only meaningful after
// Validate.
func (c *Config) BatchPolicy() tzindex.BatchPolicy {
	p, _ := tzindex.ParseBatchPolicy(c.Policy)
	return p
}
