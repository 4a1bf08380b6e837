package metadata

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"physica/internal/services"
)

// Validate checks the descriptor invariants: required fields present, all
// declared paths contained within the cartridge, and a well-formed UUID.
func (m *Metadata) Validate() error {
	if strings.TrimSpace(m.Game.Name) == "" {
		return validationErr("game.name is required")
	}
	if strings.TrimSpace(m.Game.ID) == "" {
		return validationErr("game.id is required")
	}
	if strings.TrimSpace(m.Game.Executable) == "" {
		return validationErr("game.executable is required")
	}
	if !filepath.IsLocal(m.Game.Executable) {
		return validationErr(fmt.Sprintf("game.executable %q escapes the cartridge", m.Game.Executable))
	}
	if wd := m.Runtime.WorkingDirectory; wd != "" && !filepath.IsLocal(wd) {
		return validationErr(fmt.Sprintf("runtime.working_directory %q escapes the cartridge", wd))
	}
	for _, pattern := range m.Runtime.SavePaths {
		if strings.TrimSpace(pattern) == "" {
			return validationErr("runtime.save_paths contains an empty pattern")
		}
		if !filepath.IsLocal(pattern) {
			return validationErr(fmt.Sprintf("runtime.save_paths pattern %q is not relative", pattern))
		}
	}
	if strings.TrimSpace(m.Cartridge.UUID) == "" {
		return validationErr("cartridge.uuid is missing")
	}
	if _, err := uuid.Parse(m.Cartridge.UUID); err != nil {
		return services.Wrap(services.ErrValidation, "metadata", "validate",
			fmt.Sprintf("cartridge.uuid %q is not a valid UUID", m.Cartridge.UUID), err)
	}
	return nil
}

func validationErr(msg string) error {
	return services.Wrap(services.ErrValidation, "metadata", "validate", msg, nil)
}
