// Package config loads skillscope settings.
//
// Values come from, lowest to highest precedence: built-in defaults, an optional
// YAML file, a .env file, and SKILLSCOPE_* environment variables. Environment
// names map onto YAML keys by splitting at the first underscore after the prefix:
//
//	SKILLSCOPE_STORE_DSN          -> store.dsn
//	SKILLSCOPE_EMBEDDING_API_KEY  -> embedding.api_key
//	SKILLSCOPE_CACHE_MAX_AGE      -> cache.max_age
//
// Command-line flags are applied by the caller after Load.
package config
