// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"
)

// LoadDotEnv reads KEY=value pairs from path into the process environment
// so viper picks them up. Only DOCCONV_ keys are applied, and variables
// already set in the environment win. A missing file is not an error.
// It returns the keys it applied, sorted.
func LoadDotEnv(path string) ([]string, error) {
	vars, err := godotenv.Read(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var applied []string
	for k, v := range vars {
		if !strings.HasPrefix(k, EnvPrefix+"_") {
			continue
		}
		if _, set := os.LookupEnv(k); set {
			continue
		}
		if err := os.Setenv(k, v); err != nil {
			return nil, fmt.Errorf("setting %s: %w", k, err)
		}
		applied = append(applied, k)
	}
	sort.Strings(applied)
	return applied, nil
}
