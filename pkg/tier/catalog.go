package tier

import (
	"fmt"
	"strings"
)

// Key identifies one priced (tier, interval) combination.
type Key struct {
	Tier     Tier
	Interval Interval
}

func (k Key) String() string { return string(k.Tier) + "/" + string(k.Interval) }

// Source supplies price ids. An empty string means the source has no opinion.
type Source interface {
	PriceID(t Tier, i Interval) string
}

// SourceFunc adapts a function to Source.
type SourceFunc func(t Tier, i Interval) string

func (f SourceFunc) PriceID(t Tier, i Interval) string { return f(t, i) }

// Catalog is the immutable price table used by the tier policy.
type Catalog struct {
	prices map[Key]string
	byID   map[string]Key
}

// NewCatalog resolves every paid (tier, interval) pair against sources in order.
// Pairs no source knows about stay unset and fail lookups later. A price id mapped to
// two different tiers is rejected because the inverse lookup would be ambiguous.
func NewCatalog(sources ...Source) (*Catalog, error) {
	c := &Catalog{
		prices: make(map[Key]string),
		byID:   make(map[string]Key),
	}

	for _, t := range Paid {
		for _, i := range Intervals {
			key := Key{Tier: t, Interval: i}
			priceID := resolve(sources, t, i)
			if priceID == "" {
				continue
			}
			if prev, ok := c.byID[priceID]; ok && prev.Tier != t {
				return nil, fmt.Errorf("%w: %s used by %s and %s", ErrDuplicatePrice, priceID, prev, key)
			}
			c.prices[key] = priceID
			if _, ok := c.byID[priceID]; !ok {
				c.byID[priceID] = key
			}
		}
	}

	return c, nil
}

func resolve(sources []Source, t Tier, i Interval) string {
	for _, src := range sources {
		if src == nil {
			continue
		}
		if id := strings.TrimSpace(src.PriceID(t, i)); id != "" {
			return id
		}
	}
	return ""
}

// PriceID returns the configured price for a paid tier.
// Free and unconfigured pairs return ErrMissingPriceConfiguration.
func (c *Catalog) PriceID(t Tier, i Interval) (string, error) {
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidTier, t)
	}
	id, ok := c.prices[Key{Tier: t, Interval: i}]
	if !ok {
		return "", fmt.Errorf("%w: %s/%s", ErrMissingPriceConfiguration, t, i)
	}
	return id, nil
}

// Lookup is the strict inverse of PriceID.
func (c *Catalog) Lookup(priceID string) (Key, bool) {
	key, ok := c.byID[priceID]
	return key, ok
}

// TierFromPriceID maps a price id back to its tier. Unrecognized ids map to Free;
// callers that must tell "free" from "unknown" use Lookup instead.
func (c *Catalog) TierFromPriceID(priceID string) Tier {
	if key, ok := c.byID[priceID]; ok {
		return key.Tier
	}
	return Free
}

// Keys returns the configured pairs in rank then interval order.
func (c *Catalog) Keys() []Key {
	keys := make([]Key, 0, len(c.prices))
	for _, t := range Paid {
		for _, i := range Intervals {
			k := Key{Tier: t, Interval: i}
			if _, ok := c.prices[k]; ok {
				keys = append(keys, k)
			}
		}
	}
	return keys
}
