package config

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Engine holds the settlement engine configuration.
type Engine struct {
	NBP        NBP        `koanf:"nbp"`
	Cache      Cache      `koanf:"cache"`
	Conversion Conversion `koanf:"conversion"`
}

// NBP configures the client of the NBP Web API.
type NBP struct {
	BaseURL    string        `koanf:"baseurl"`
	Timeout    time.Duration `koanf:"timeout"`
	MaxRetries int           `koanf:"maxretries"`
}

// Cache configures the rate cache and its backing store.
type Cache struct {
	TTL time.Duration `koanf:"ttl"`

	// Dir is the BadgerDB directory for the durable store. Ignored when
	// InMemory is set.
	Dir      string `koanf:"dir"`
	InMemory bool   `koanf:"inmemory"`
}

// Conversion configures the PLN conversion services.
type Conversion struct {
	HomeCurrency      string `koanf:"homecurrency"`
	AllowanceCurrency string `koanf:"allowancecurrency"`

	// MaxConcurrentFetches bounds the rate-fetch fan-out during batch
	// expense conversion.
	MaxConcurrentFetches int `koanf:"maxconcurrentfetches"`

	// FallbackRates is the approximate static rate table applied when no
	// live rate can be fetched. Using one of these compromises tax accuracy
	// and is always surfaced as a warning.
	FallbackRates map[string]float64 `koanf:"fallbackrates"`
}

// FallbackRate returns the static approximate rate for a currency code.
func (c Conversion) FallbackRate(code string) (decimal.Decimal, bool) {
	rate, ok := c.FallbackRates[strings.ToUpper(code)]
	if !ok || rate <= 0 {
		return decimal.Decimal{}, false
	}
	return decimal.NewFromFloat(rate), true
}

func defaults() Engine {
	return Engine{
		NBP: NBP{
			BaseURL:    "https://api.nbp.pl/api",
			Timeout:    10 * time.Second,
			MaxRetries: 3,
		},
		Cache: Cache{
			TTL:      24 * time.Hour,
			Dir:      "data/rates",
			InMemory: false,
		},
		Conversion: Conversion{
			HomeCurrency:         "PLN",
			AllowanceCurrency:    "EUR",
			MaxConcurrentFetches: 4,
			FallbackRates: map[string]float64{
				"EUR": 4.35,
				"USD": 4.20,
				"GBP": 5.10,
				"CHF": 4.65,
				"CZK": 0.185,
				"SEK": 0.40,
				"NOK": 0.40,
				"DKK": 0.585,
				"HUF": 0.011,
				"JPY": 0.028,
			},
		},
	}
}

// Load builds the engine configuration from struct defaults, an optional
// YAML file and TRIPSETTLE_-prefixed environment variables, in that order.
func Load(path string) (Engine, error) {
	var k = koanf.New(".")

	err := k.Load(structs.Provider(defaults(), "koanf"), nil)
	if err != nil {
		log.Errorf("error loading config from structs: %v", err)
		return Engine{}, err
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if os.IsNotExist(err) {
				log.Infof("Config file not found at %s, using defaults and environment variables", path)
			} else {
				log.Errorf("error loading config from YAML: %v", err)
				return Engine{}, err
			}
		} else {
			log.Infof("Loaded configuration from file: %s", path)
		}
	}

	err = k.Load(env.Provider(".", env.Opt{
		Prefix: "TRIPSETTLE_",
		TransformFunc: func(k, v string) (string, any) {
			// Transform the key.
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, "TRIPSETTLE_")), "_", ".")
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Engine{}, err
	}

	var engine Engine
	if err := k.Unmarshal("", &engine); err != nil {
		return Engine{}, err
	}

	return engine, nil
}
