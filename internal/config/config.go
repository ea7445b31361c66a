// Package config reads the YAML runtime configuration and the ejson or
// environment secrets the binaries start from.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"dario.cat/mergo"
	"github.com/Shopify/ejson"
	"github.com/caarlos0/env/v6"
	"github.com/ghodss/yaml"
)

const ejsonKeyEnvVar = "FINASSIST_EJSON_SECRET_KEY"

var config Config
var secrets Secrets

// ReadConfig loads configuration and secrets. Raw YAML in configEnvVar
// takes precedence over configFile; a missing config file falls back to
// defaults so the CLI can run without one.
func ReadConfig(configEnvVar, configFile, secretsFile string) error {
	_, err := readConfig(configEnvVar, configFile)
	if err != nil {
		return err
	}

	_, err = readSecrets(secretsFile)
	if err != nil {
		return err
	}
	return nil
}

func CurrentConfig() *Config {
	return &config
}

func CurrentSecrets() *Secrets {
	return &secrets
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{Addr: ":8080", TurnQueueSize: 16, TurnWorkers: 2},
		Model:  ModelConfig{Provider: "gemini", TimeoutSeconds: 60},
		Source: SourceConfig{Kind: "csv", CSVPath: "transactions.csv", SQLiteTable: "transactions", PostgresTable: "transactions"},
		Graph:  GraphConfig{TimeoutSeconds: 15},
		Log:    LogConfig{Level: "info"},
	}
}

func readConfig(envName, filename string) (*Config, error) {
	var raw []byte
	var err error

	rawEnv := os.Getenv(envName)
	if rawEnv != "" {
		fmt.Printf("Reading config from environment variable %s\n", envName)
		raw = []byte(rawEnv)
	} else if filename != "" {
		raw, err = os.ReadFile(filename)
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
	}

	config = Config{}
	if len(raw) > 0 {
		if err := yaml.Unmarshal(raw, &config); err != nil {
			return nil, err
		}
	}
	if err := mergo.Merge(&config, defaultConfig()); err != nil {
		return nil, fmt.Errorf("Failed to apply config defaults: %v", err)
	}

	return &config, nil
}

func readSecrets(filename string) (*Secrets, error) {
	ejsonSecrets, ejsonErr := readEjsonSecrets(filename)

	envSecrets, envErr := readEnvSecrets()

	if ejsonErr == nil && envErr == nil {
		err := mergo.Merge(envSecrets, *ejsonSecrets)
		secrets = *envSecrets
		if err != nil {
			return nil, fmt.Errorf("Failed to merge secrets: %v", err)
		}
	} else if ejsonErr != nil && envErr == nil {
		secrets = *envSecrets
	} else if ejsonErr == nil && envErr != nil {
		fmt.Printf("Warning: Error to parse env secret. Env error: %v\n", envErr)
		secrets = *ejsonSecrets
	} else {
		return nil, fmt.Errorf("Failed to parse secrets. Ejson error: %v. Env error: %v", ejsonErr, envErr)
	}

	return &secrets, nil
}

func readEjsonSecrets(filename string) (*Secrets, error) {
	ejsonSecrets := Secrets{}
	ejsonKeyFile := os.Getenv(ejsonKeyEnvVar)
	ejsonKey := []byte{}
	var err error

	if ejsonKeyFile != "" {
		ejsonKey, err = os.ReadFile(ejsonKeyFile)
		if err != nil {
			return nil, err
		}
	}
	raw, err := ejson.DecryptFile(filename, "/opt/ejson/keys", string(ejsonKey))
	if err != nil {
		return nil, err
	}

	err = json.Unmarshal(raw, &ejsonSecrets)
	return &ejsonSecrets, err
}

func readEnvSecrets() (*Secrets, error) {
	envSecrets := Secrets{}
	err := env.Parse(&envSecrets)
	return &envSecrets, err
}
