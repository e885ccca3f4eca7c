// Package config loads runtime configuration from the environment. Signing
// keys are referenced by file path only; raw key material never lives in
// configuration values or source.
package config

import "os"

// Config holds process configuration.
type Config struct {
	// DBPath is the SQLite attestation store location.
	DBPath string
	// KeyFile is the path to the validator's hex-encoded signing key.
	KeyFile string
	// PaymentURL is the payment rail base URL.
	PaymentURL string
	// RegistryURL is the receipt registry base URL.
	RegistryURL string
	LogLevel    string
}

// Load reads configuration from environment variables, applying defaults.
func Load() *Config {
	return &Config{
		DBPath:      getenv("ATTEST_DB_PATH", "attest.db"),
		KeyFile:     os.Getenv("ATTEST_KEY_FILE"),
		PaymentURL:  getenv("ATTEST_PAYMENT_URL", "http://localhost:3001"),
		RegistryURL: getenv("ATTEST_REGISTRY_URL", "http://localhost:3002"),
		LogLevel:    getenv("ATTEST_LOG_LEVEL", "INFO"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
