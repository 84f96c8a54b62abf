package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/colorfulnotion/avm/avm"
	"github.com/colorfulnotion/avm/avm/avmtypes"
	"github.com/colorfulnotion/avm/log"
)

// Config is the simulator configuration file. Command line flags override it.
type Config struct {
	LogLevel   string   `json:"logLevel"`
	LogModules []string `json:"logModules,omitempty"`
	LogJSON    bool     `json:"logJson"`
	Syslog     string   `json:"syslog,omitempty"`

	DataDir   string `json:"dataDir"`
	TraceFile string `json:"traceFile,omitempty"`

	OTLPEndpoint string `json:"otlpEndpoint,omitempty"`
	OTLPInsecure bool   `json:"otlpInsecure"`
	MetricsAddr  string `json:"metricsAddr,omitempty"`

	Workers          int    `json:"workers"`
	ProgramCacheSize int    `json:"programCacheSize"`
	MaxCallDepth     int    `json:"maxCallDepth"`
	L2Gas            uint64 `json:"l2Gas"`
	DAGas            uint64 `json:"daGas"`

	Globals Globals `json:"globals"`
}

// Globals holds field values as decimal or 0x-prefixed strings.
type Globals struct {
	ChainID     string `json:"chainId"`
	Version     string `json:"version"`
	BlockNumber uint32 `json:"blockNumber"`
	Timestamp   uint64 `json:"timestamp"`
	FeePerL2Gas string `json:"feePerL2Gas"`
	FeePerDAGas string `json:"feePerDaGas"`
}

func Default() *Config {
	return &Config{
		LogLevel:         "info",
		DataDir:          "./avmdb",
		OTLPInsecure:     true,
		ProgramCacheSize: avm.DefaultProgramCacheSize,
		MaxCallDepth:     avm.DefaultMaxCallDepth,
		L2Gas:            12_000_000,
		DAGas:            12_000_000,
		Globals: Globals{
			ChainID:     "1",
			Version:     "1",
			FeePerL2Gas: "0",
			FeePerDAGas: "0",
		},
	}
}

// Load reads path over the defaults. Unknown fields are an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	log.Debug(log.ConfigLoad, "config loaded", "path", path)
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}
	if c.ProgramCacheSize <= 0 {
		errs = append(errs, fmt.Errorf("programCacheSize must be positive, got %d", c.ProgramCacheSize))
	}
	if c.MaxCallDepth <= 0 {
		errs = append(errs, fmt.Errorf("maxCallDepth must be positive, got %d", c.MaxCallDepth))
	}
	if c.L2Gas == 0 {
		errs = append(errs, errors.New("l2Gas must be positive"))
	}
	if _, err := c.Globals.Variables(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c *Config) Gas() avmtypes.Gas {
	return avmtypes.NewGas(c.L2Gas, c.DAGas)
}

// Variables parses the global variables.
func (g Globals) Variables() (avmtypes.GlobalVariables, error) {
	out := avmtypes.GlobalVariables{BlockNumber: g.BlockNumber, Timestamp: g.Timestamp}
	for _, f := range []struct {
		name string
		in   string
		dst  *avmtypes.Fr
	}{
		{"chainId", g.ChainID, &out.ChainID},
		{"version", g.Version, &out.Version},
		{"feePerL2Gas", g.FeePerL2Gas, &out.FeePerL2Gas},
		{"feePerDaGas", g.FeePerDAGas, &out.FeePerDAGas},
	} {
		if f.in == "" {
			continue
		}
		v, err := avmtypes.FrFromString(f.in)
		if err != nil {
			return avmtypes.GlobalVariables{}, fmt.Errorf("globals.%s: %w", f.name, err)
		}
		*f.dst = v
	}
	return out, nil
}

// String method returns the Config as a formatted JSON string
func (c *Config) String() string {
	jsonData, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Sprintf("Error marshaling JSON: %v", err)
	}
	return string(jsonData)
}
