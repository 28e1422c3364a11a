package compose

import (
	"fmt"
	"os"
	"path/filepath"

	"trackerdeploy/internal/constants"
)

// WriteProject writes docker-compose.yml and .env into dir. The .env file
// holds credentials and is only readable by the owner.
func WriteProject(dir string, file *ComposeFile, env EnvFile) (string, error) {
	data, err := Marshal(file)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return "", fmt.Errorf("creating project directory: %w", err)
	}

	composePath := filepath.Join(dir, constants.ComposeFileName)
	if err := os.WriteFile(composePath, data, constants.FilePermissions); err != nil {
		return "", fmt.Errorf("writing %s: %w", composePath, err)
	}

	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte(env.String()), constants.SecureFilePermissions); err != nil {
		return "", fmt.Errorf("writing %s: %w", envPath, err)
	}

	return composePath, nil
}
