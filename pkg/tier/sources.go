package tier

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// EnvPrices is the primary price source, loaded with config.Load.
type EnvPrices struct {
	LessonsMonthly   string `env:"STRIPE_PRICE_LESSONS_MONTHLY"`
	LessonsYearly    string `env:"STRIPE_PRICE_LESSONS_YEARLY"`
	LessonsAIMonthly string `env:"STRIPE_PRICE_LESSONS_AI_MONTHLY"`
	LessonsAIYearly  string `env:"STRIPE_PRICE_LESSONS_AI_YEARLY"`
}

func (p EnvPrices) PriceID(t Tier, i Interval) string {
	switch (Key{Tier: t, Interval: i}) {
	case Key{Lessons, Monthly}:
		return p.LessonsMonthly
	case Key{Lessons, Yearly}:
		return p.LessonsYearly
	case Key{LessonsAI, Monthly}:
		return p.LessonsAIMonthly
	case Key{LessonsAI, Yearly}:
		return p.LessonsAIYearly
	}
	return ""
}

// LegacyEnvPrices covers the older single-price variables that predate yearly billing.
// They only ever described monthly prices.
type LegacyEnvPrices struct {
	Lessons   string `env:"STRIPE_LESSONS_PRICE_ID"`
	LessonsAI string `env:"STRIPE_LESSONS_AI_PRICE_ID"`
}

func (p LegacyEnvPrices) PriceID(t Tier, i Interval) string {
	if i != Monthly {
		return ""
	}
	switch t {
	case Lessons:
		return p.Lessons
	case LessonsAI:
		return p.LessonsAI
	}
	return ""
}

// CatalogConfig points at the optional YAML catalog file.
type CatalogConfig struct {
	File string `env:"PRICE_CATALOG_FILE"`
}

// FileSource is a price table read from YAML:
//
//	prices:
//	  lessons:
//	    month: price_123
//	    year: price_456
type FileSource struct {
	Prices map[Tier]map[Interval]string `yaml:"prices"`
}

func (f *FileSource) PriceID(t Tier, i Interval) string {
	if f == nil {
		return ""
	}
	return f.Prices[t][i]
}

// LoadFileSource reads a YAML catalog. An empty path yields an empty source.
func LoadFileSource(path string) (*FileSource, error) {
	if path == "" {
		return &FileSource{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadCatalog, err)
	}
	return ParseFileSource(data)
}

// ParseFileSource decodes a YAML catalog and rejects unknown tiers and intervals.
func ParseFileSource(data []byte) (*FileSource, error) {
	var f FileSource
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Join(ErrFailedToLoadCatalog, err)
	}
	for t, byInterval := range f.Prices {
		if t == Free || !t.Valid() {
			return nil, errors.Join(ErrFailedToLoadCatalog, fmt.Errorf("%w: %q", ErrInvalidTier, t))
		}
		for i := range byInterval {
			if i != Monthly && i != Yearly {
				return nil, errors.Join(ErrFailedToLoadCatalog, fmt.Errorf("%w: %q", ErrInvalidInterval, i))
			}
		}
	}
	return &f, nil
}

// MapSource is a fixed price table, mostly useful in tests.
type MapSource map[Key]string

func (m MapSource) PriceID(t Tier, i Interval) string { return m[Key{Tier: t, Interval: i}] }
