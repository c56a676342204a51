// Package config parses environment variables into typed structs with
// github.com/caarlos0/env/v11, after loading an optional .env file with
// github.com/joho/godotenv.
//
// Each struct type is parsed once per process and cached; later Load calls for
// the same type return the cached copy. A failed parse is not cached, so fixing
// the environment and calling Load again works. Tests use Reset between cases.
//
//	var cfg AppConfig
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
package config
