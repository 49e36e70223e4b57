// Copyright 2024 Northern.tech AS
//
//    Licensed under the Apache License, Version 2.0 (the "License");
//    you may not use this file except in compliance with the License.
//    You may obtain a copy of the License at
//
//        http://www.apache.org/licenses/LICENSE-2.0
//
//    Unless required by applicable law or agreed to in writing, software
//    distributed under the License is distributed on an "AS IS" BASIS,
//    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//    See the License for the specific language governing permissions and
//    limitations under the License.

// Package conf loads the optional on-disk configuration for cmd/tsc. It is
// never imported by the engine itself — the Driver only ever takes an
// engine.Config built in memory, per §6's boundary between the core and
// its surrounding CLI.
package conf

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"github.com/tailscale/hujson"
)

// File is the on-disk shape of a tsc config file. It's tolerant
// JSON-with-comments (JSONC), so operators can annotate their presets.
type File struct {
	MountRoot           string `json:"mount_root"`
	CapacityToTestBytes uint64 `json:"capacity_to_test_bytes,omitempty"`
	StopOnFirstError    bool   `json:"stop_on_first_error"`
	DeleteTempFiles     bool   `json:"delete_temp_files"`
	WriteLogFile        bool   `json:"write_log_file"`
}

// Default returns the conservative defaults used when no config file is
// present: early-detection on, temp files kept on the device for later
// inspection, and no result log written.
func Default() File {
	return File{
		StopOnFirstError: true,
		DeleteTempFiles:  false,
		WriteLogFile:     false,
	}
}

// Load reads and parses the JSONC config file at path.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, errors.Wrapf(err, "read config %q", path)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return File{}, errors.Wrapf(err, "invalid JSONC in %q", path)
	}

	cfg := Default()
	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return File{}, errors.Wrapf(err, "invalid config JSON in %q", path)
	}
	return cfg, nil
}
