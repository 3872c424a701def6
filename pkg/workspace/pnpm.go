package workspace

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/NullVoxPopuli/dep-hellp/pkg/errors"
)

// pnpmWorkspace is the subset of pnpm-workspace.yaml we read.
type pnpmWorkspace struct {
	Packages []string `yaml:"packages"`
}

func readPNPMWorkspace(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
	}
	var ws pnpmWorkspace
	if err := yaml.Unmarshal(data, &ws); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	return ws.Packages, nil
}
