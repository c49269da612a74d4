// control/toml.go
// Author: momentics <momentics@gmail.com>
//
// TOML-backed configuration loading.

package control

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// LoadTOML reads a TOML file and merges its top-level keys into the store,
// firing reload listeners once.
func (cs *ConfigStore) LoadTOML(path string) error {
	raw := make(map[string]any)
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}
	cs.SetConfig(raw)
	return nil
}
