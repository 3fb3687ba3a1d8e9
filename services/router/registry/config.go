// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package registry

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// Capability File Loading
// =============================================================================

// capabilityFile is the on-disk shape of a capability configuration.
type capabilityFile struct {
	Agents []AgentCapability `yaml:"agents" validate:"required,min=1,dive"`
}

var validate = validator.New()

// LoadCapabilities reads and validates a YAML capability file.
//
// # Inputs
//
//	path - Path to the YAML file.
//
// # Outputs
//
//	[]AgentCapability - The validated capability records.
//	error - Non-nil on read, parse, or validation failure.
func LoadCapabilities(path string) ([]AgentCapability, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading capability file %s: %w", path, err)
	}

	var file capabilityFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing capability file %s: %w", path, err)
	}
	if err := validate.Struct(file); err != nil {
		return nil, fmt.Errorf("validating capability file %s: %w", path, err)
	}

	seen := make(map[string]bool, len(file.Agents))
	for _, agent := range file.Agents {
		if seen[agent.AgentID] {
			return nil, fmt.Errorf("validating capability file %s: duplicate agent id %q", path, agent.AgentID)
		}
		seen[agent.AgentID] = true
	}
	return file.Agents, nil
}
