// Package config loads and validates the boundedring harness configuration.
//
// Configuration is built in layers, later layers winning:
//
//  1. Default(): capacity 10, monitor strategy, 3 producers, 3 consumers,
//     50 items per producer, 5ms-25ms delays, text logs at info level
//  2. Zero or more JSON or YAML files (chosen by extension), merged key by key
//     so a file only needs the fields it changes
//  3. BOUNDEDRING_* environment variables
//
// Example file:
//
//	buffer:
//	  capacity: 4
//	  strategy: both
//	workload:
//	  producers: 2
//	  items_per_producer: 100
//	  max_delay: 10ms
//
// Loading:
//
//	loader := config.NewLoader()
//	loader.AddLayer("boundedring.yaml")
//	cfg, err := loader.Load()
//
// Environment variables: BOUNDEDRING_STRATEGY, _CAPACITY, _PRODUCERS,
// _CONSUMERS, _ITEMS, _MIN_DELAY, _MAX_DELAY, _CONSUMER_MIN_DELAY,
// _CONSUMER_MAX_DELAY, _SEED, _METRICS_PORT, _LOG_LEVEL and _LOG_FORMAT.
//
// A config file is either an absolute path or a relative path under the
// working directory, ends in .json, .yaml or .yml, and is a regular file of at
// most 1MB. After decoding, JSON and YAML documents alike are limited in
// nesting depth and total value count, with YAML aliases counted expanded.
//
// All validation failures match errors.ErrInvalidConfig and are classified
// as invalid; a missing file matches errors.ErrConfigNotFound.
package config
