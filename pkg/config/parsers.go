package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
)

// holds parsed command-line flag values and which were set
type Flags struct {
	Addr   string
	DB     string
	Config string
	Set    map[string]bool
}

// holds the result of LoadEffectiveConfig
type EffectiveConfigResult struct {
	Config  *Config
	Addr    string
	DBPath  string
	Sources []string // any of "defaults", "config", "env", "flags"
}

// parses command-line flags and returns them as a Flags struct
func ParseConfigFlags(args []string) (Flags, error) {
	fset := flag.NewFlagSet("inboxd", flag.ContinueOnError)
	addrPtr := fset.String("addr", ":8080", "HTTP listen address")
	dbPtr := fset.String("db", defaultDBPath, "Pebble DB path")
	cfgPtr := fset.String("config", "./config.yaml", "Path to config file")
	if err := fset.Parse(args); err != nil {
		return Flags{}, err
	}

	// record which flags were set explicitly
	setFlags := make(map[string]bool)
	fset.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })

	return Flags{Addr: *addrPtr, DB: *dbPtr, Config: *cfgPtr, Set: setFlags}, nil
}

// loads config from file, returns config, found bool, and error.
// A missing file is only an error when --config was passed explicitly.
func ParseConfigFile(flags Flags) (*Config, bool, error) {
	cfgPath := ResolveConfigPath(flags.Config, flags.Set["config"])
	cfg, err := LoadConfigFile(cfgPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !flags.Set["config"] {
			return &Config{}, false, nil
		}
		return nil, false, err
	}
	return cfg, true, nil
}

// envLookup abstracts os.LookupEnv for tests.
type envLookup func(string) (string, bool)

// ApplyEnv overlays INBOX_* environment variables onto cfg and reports
// whether any of them were set.
func ApplyEnv(cfg *Config) (bool, error) {
	return applyEnv(cfg, os.LookupEnv)
}

func applyEnv(cfg *Config, lookup envLookup) (bool, error) {
	used := false
	get := func(name string) (string, bool) {
		v, ok := lookup("INBOX_" + name)
		v = strings.TrimSpace(v)
		if ok && v != "" {
			used = true
			return v, true
		}
		return "", false
	}
	var errs []error
	fail := func(name string, err error) {
		errs = append(errs, fmt.Errorf("INBOX_%s: %w", name, err))
	}

	if v, ok := get("ADDR"); ok {
		if h, p, err := net.SplitHostPort(v); err == nil {
			cfg.Server.Address = h
			if pi, err := strconv.Atoi(p); err == nil {
				cfg.Server.Port = pi
			}
		} else {
			cfg.Server.Address = v
		}
	}
	if v, ok := get("PORT"); ok {
		if pi, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = pi
		} else {
			fail("PORT", err)
		}
	}
	if v, ok := get("DB_PATH"); ok {
		cfg.Server.DBPath = v
	}
	if v, ok := get("READ_TIMEOUT"); ok {
		if d, err := parseDuration(v); err == nil {
			cfg.Server.ReadTimeout = d
		} else {
			fail("READ_TIMEOUT", err)
		}
	}
	if v, ok := get("STORE_SYNC"); ok {
		cfg.Store.Sync = parseBool(v)
	}
	if v, ok := get("STORE_DISABLE_WAL"); ok {
		cfg.Store.DisableWAL = parseBool(v)
	}
	if v, ok := get("STORE_CACHE_SIZE"); ok {
		if s, err := parseSizeBytes(v); err == nil {
			cfg.Store.CacheSize = s
		} else {
			fail("STORE_CACHE_SIZE", err)
		}
	}
	if v, ok := get("LOG_LEVEL"); ok {
		cfg.Logging.Level = v
	}
	if v, ok := get("NOTIFY_KIND"); ok {
		cfg.Notify.Kind = strings.ToLower(v)
	}
	if v, ok := get("NOTIFY_WEBHOOK_URL"); ok {
		cfg.Notify.WebhookURL = v
	}
	if v, ok := get("NOTIFY_TIMEOUT"); ok {
		if d, err := parseDuration(v); err == nil {
			cfg.Notify.Timeout = d
		} else {
			fail("NOTIFY_TIMEOUT", err)
		}
	}
	if v, ok := get("NOTIFY_SERVICE_NAME"); ok {
		cfg.Notify.ServiceName = v
	}
	if v, ok := get("NOTIFY_CHANNEL_WEBHOOKS"); ok {
		cfg.Notify.ChannelWebhooks = parseBool(v)
	}
	if v, ok := get("REMINDER_ENABLED"); ok {
		cfg.Reminder.Enabled = parseBool(v)
	}
	if v, ok := get("REMINDER_CRON"); ok {
		cfg.Reminder.Cron = v
	}
	if v, ok := get("REMINDER_MIN_AGE"); ok {
		if d, err := parseDuration(v); err == nil {
			cfg.Reminder.MinAge = d
		} else {
			fail("REMINDER_MIN_AGE", err)
		}
	}
	if v, ok := get("INBOUND_RATE_RPS"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Inbound.RateLimit.RPS = f
		} else {
			fail("INBOUND_RATE_RPS", err)
		}
	}
	if v, ok := get("INBOUND_RATE_BURST"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Inbound.RateLimit.Burst = n
		} else {
			fail("INBOUND_RATE_BURST", err)
		}
	}
	return used, errors.Join(errs...)
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// LoadEffectiveConfig layers the sources: defaults < config file < env < flags.
func LoadEffectiveConfig(flags Flags) (EffectiveConfigResult, error) {
	var res EffectiveConfigResult

	cfg, fileExists, err := ParseConfigFile(flags)
	if err != nil {
		return res, err
	}
	res.Sources = append(res.Sources, "defaults")
	if fileExists {
		res.Sources = append(res.Sources, "config")
	}

	envUsed, err := ApplyEnv(cfg)
	if err != nil {
		return res, err
	}
	if envUsed {
		res.Sources = append(res.Sources, "env")
	}

	if flags.Set["addr"] {
		host, port, err := net.SplitHostPort(flags.Addr)
		if err != nil {
			return res, fmt.Errorf("invalid --addr %q: %w", flags.Addr, err)
		}
		cfg.Server.Address = host
		if pi, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = pi
		}
	}
	if flags.Set["db"] {
		cfg.Server.DBPath = flags.DB
	}
	if flags.Set["addr"] || flags.Set["db"] {
		res.Sources = append(res.Sources, "flags")
	}

	cfg.ApplyDefaults()
	res.Config = cfg
	res.Addr = cfg.Addr()
	res.DBPath = cfg.Server.DBPath
	return res, nil
}
