// Package tier holds the subscription tier policy: the total order over tiers and the
// mapping between (tier, interval) pairs and processor price identifiers.
//
// A Catalog is built once at process start from a prioritized list of Sources and is
// immutable afterwards. For every (tier, interval) pair the first source returning a
// non-empty price id wins. Lookups that find nothing fail closed with
// ErrMissingPriceConfiguration; the catalog never substitutes a default price.
//
// # Usage
//
//	var envPrices tier.EnvPrices
//	config.MustLoad(&envPrices)
//
//	file, err := tier.LoadFileSource("prices.yaml")
//	if err != nil {
//		return err
//	}
//
//	catalog, err := tier.NewCatalog(envPrices, file)
//	if err != nil {
//		return err
//	}
//
//	priceID, err := catalog.PriceID(tier.Lessons, tier.Monthly)
package tier
