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

// ConnectionConfig holds the institution identity and protocol settings the
// connection lifecycle controller needs. It is loaded the way the rest of
// Config is loaded (YAML/JSON + env var substitution) and handed to the
// controller as an injected snapshot at construction time, not looked up
// globally on every call.
type ConnectionConfig struct {
	InstitutionDID     string `yaml:"institution_did" json:"institution_did"`
	InstitutionName    string `yaml:"institution_name" json:"institution_name"`
	InstitutionLogoURL string `yaml:"institution_logo_url" json:"institution_logo_url"`
	SDKToRemoteVerkey  string `yaml:"sdk_to_remote_verkey" json:"sdk_to_remote_verkey"`
	// ProtocolType selects the acceptance wire envelope: "1.0" selects V1
	// (MessagePack, double-wrapped), anything else selects V2 (JSON+AEAD).
	ProtocolType   string `yaml:"protocol_type" json:"protocol_type"`
	EnableTestMode bool   `yaml:"enable_test_mode" json:"enable_test_mode"`
	AgencyEndpoint string `yaml:"agency_endpoint" json:"agency_endpoint"`
}

func setConnectionDefaults(cfg *ConnectionConfig) {
	if cfg.ProtocolType == "" {
		cfg.ProtocolType = "2.0"
	}
}
