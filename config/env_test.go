// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubstituteEnvVars(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		envVars  map[string]string
		expected string
	}{
		{
			name:     "simple variable substitution",
			input:    "${TEST_VAR}",
			envVars:  map[string]string{"TEST_VAR": "value123"},
			expected: "value123",
		},
		{
			name:     "variable with default - variable exists",
			input:    "${TEST_VAR:default}",
			envVars:  map[string]string{"TEST_VAR": "actual"},
			expected: "actual",
		},
		{
			name:     "variable with default - variable missing",
			input:    "${MISSING_VAR:default}",
			envVars:  map[string]string{},
			expected: "default",
		},
		{
			name:     "multiple variables in string",
			input:    "http://${HOST}:${PORT}/path",
			envVars:  map[string]string{"HOST": "localhost", "PORT": "8080"},
			expected: "http://localhost:8080/path",
		},
		{
			name:     "variable with empty default",
			input:    "${EMPTY:}",
			envVars:  map[string]string{},
			expected: "",
		},
		{
			name:     "no variables",
			input:    "plain text",
			envVars:  map[string]string{},
			expected: "plain text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				os.Setenv(k, v)
				defer os.Unsetenv(k)
			}

			assert.Equal(t, tt.expected, SubstituteEnvVars(tt.input))
		})
	}
}

func TestGetEnvironment(t *testing.T) {
	tests := []struct {
		name     string
		envVar   string
		value    string
		expected string
	}{
		{name: "BAYBRIDGE_ENV set", envVar: "BAYBRIDGE_ENV", value: "production", expected: "production"},
		{name: "ENVIRONMENT set", envVar: "ENVIRONMENT", value: "staging", expected: "staging"},
		{name: "no env var - defaults to development", envVar: "", value: "", expected: "development"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Unsetenv("BAYBRIDGE_ENV")
			os.Unsetenv("ENVIRONMENT")

			if tt.envVar != "" {
				os.Setenv(tt.envVar, tt.value)
				defer os.Unsetenv(tt.envVar)
			}

			assert.Equal(t, tt.expected, GetEnvironment())
		})
	}
}

func TestGetEnvironment_PrefersBaybridgeEnvOverEnvironment(t *testing.T) {
	os.Setenv("BAYBRIDGE_ENV", "production")
	os.Setenv("ENVIRONMENT", "staging")
	defer os.Unsetenv("BAYBRIDGE_ENV")
	defer os.Unsetenv("ENVIRONMENT")

	assert.Equal(t, "production", GetEnvironment())
}

func TestIsProduction(t *testing.T) {
	tests := []struct {
		name     string
		env      string
		expected bool
	}{
		{"production environment", "production", true},
		{"development environment", "development", false},
		{"staging environment", "staging", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Setenv("BAYBRIDGE_ENV", tt.env)
			defer os.Unsetenv("BAYBRIDGE_ENV")

			assert.Equal(t, tt.expected, IsProduction())
		})
	}
}

func TestIsDevelopment(t *testing.T) {
	tests := []struct {
		name     string
		env      string
		expected bool
	}{
		{"development environment", "development", true},
		{"local environment", "local", true},
		{"production environment", "production", false},
		{"staging environment", "staging", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Setenv("BAYBRIDGE_ENV", tt.env)
			defer os.Unsetenv("BAYBRIDGE_ENV")

			assert.Equal(t, tt.expected, IsDevelopment())
		})
	}
}

func TestSubstituteEnvVarsInConfig(t *testing.T) {
	os.Setenv("TEST_ADDR", ":9999")
	os.Setenv("TEST_DB", "baybridge_test")
	defer os.Unsetenv("TEST_ADDR")
	defer os.Unsetenv("TEST_DB")

	cfg := &Config{
		ListenAddr: "${TEST_ADDR}",
		Peers:      []string{"${MISSING_PEER:http://fallback:8080}"},
		Storage: StorageConfig{
			Postgres: PostgresConfig{Database: "${TEST_DB}"},
		},
	}

	SubstituteEnvVarsInConfig(cfg)

	assert.Equal(t, ":9999", cfg.ListenAddr)
	assert.Equal(t, "http://fallback:8080", cfg.Peers[0])
	assert.Equal(t, "baybridge_test", cfg.Storage.Postgres.Database)
}

func TestSubstituteEnvVarsInConfig_NilIsNoOp(t *testing.T) {
	assert.NotPanics(t, func() { SubstituteEnvVarsInConfig(nil) })
}
