package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v2"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SOFTWIFI_"

// Load returns the defaults overlaid with the file at path (if path is not
// empty) and then with environment overrides. The result is validated.
func Load(path string) (Tuning, error) {
	t := Default()

	if path != "" {
		if err := loadFromFile(&t, path); err != nil {
			return Tuning{}, fmt.Errorf("load tuning: %w", err)
		}
	}

	if err := applyEnvOverrides(&t, os.LookupEnv); err != nil {
		return Tuning{}, err
	}

	t.normalize()
	if err := t.Validate(); err != nil {
		return Tuning{}, err
	}
	return t, nil
}

func loadFromFile(t *Tuning, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return loadTOML(t, path)
	case ".yaml", ".yml":
		return loadYAML(t, path)
	default:
		return fmt.Errorf("%s: unsupported config extension", path)
	}
}

func loadTOML(t *Tuning, path string) error {
	meta, err := toml.DecodeFile(path, t)
	if err != nil {
		return err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}
	if meta.IsDefined("country_code") && strings.TrimSpace(t.CountryCode) == "" {
		return fmt.Errorf("%w: country_code is empty", ErrInvalid)
	}
	return nil
}

func loadYAML(t *Tuning, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.UnmarshalStrict(data, t)
}

type lookupFunc func(key string) (string, bool)

// applyEnvOverrides applies SOFTWIFI_* variables on top of t.
func applyEnvOverrides(t *Tuning, lookup lookupFunc) error {
	ints := []struct {
		key string
		dst *int
	}{
		{"RX_QUEUE_SIZE", &t.RxQueueSize},
		{"TX_QUEUE_SIZE", &t.TxQueueSize},
		{"MTU", &t.MTU},
		{"MAX_BURST_SIZE", &t.MaxBurstSize},
	}
	for _, v := range ints {
		s, ok := lookup(EnvPrefix + v.key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("%w: %s%s=%q", ErrInvalid, EnvPrefix, v.key, s)
		}
		*v.dst = n
	}

	uints := []struct {
		key  string
		bits int
		set  func(uint64)
	}{
		{"BEACON_TIMEOUT", 16, func(n uint64) { t.BeaconTimeout = uint16(n) }},
		{"AP_BEACON_TIMEOUT", 16, func(n uint64) { t.APBeaconTimeout = uint16(n) }},
		{"COUNTRY_CODE_OPERATING_CLASS", 8, func(n uint64) { t.CountryOperatingClass = uint8(n) }},
		{"LISTEN_INTERVAL", 16, func(n uint64) { t.ListenInterval = uint16(n) }},
		{"SCAN_METHOD", 32, func(n uint64) { t.ScanMethod = uint32(n) }},
		{"FAILURE_RETRY_CNT", 8, func(n uint64) { t.FailureRetryCount = uint8(n) }},
	}
	for _, v := range uints {
		s, ok := lookup(EnvPrefix + v.key)
		if !ok {
			continue
		}
		n, err := strconv.ParseUint(strings.TrimSpace(s), 10, v.bits)
		if err != nil {
			return fmt.Errorf("%w: %s%s=%q", ErrInvalid, EnvPrefix, v.key, s)
		}
		v.set(n)
	}

	if s, ok := lookup(EnvPrefix + "COUNTRY_CODE"); ok {
		t.CountryCode = s
	}
	if s, ok := lookup(EnvPrefix + "POWER_SAVE"); ok {
		t.PowerSave = s
	}
	if s, ok := lookup(EnvPrefix + "DUMP_PACKETS"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("%w: %sDUMP_PACKETS=%q", ErrInvalid, EnvPrefix, s)
		}
		t.DumpPackets = b
	}
	return nil
}
