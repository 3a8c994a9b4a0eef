package engine

import (
	"fmt"
	"os"
	"os/exec"
)

const (
	// binaryEnv overrides the engine binary path.
	binaryEnv     = "FERRY_BINARY"
	defaultBinary = "ferry-engine"
)

// Binary resolves the engine executable: the FERRY_BINARY environment
// variable wins, otherwise the default name is looked up on PATH.
func Binary() (string, error) {
	if path := os.Getenv(binaryEnv); path != "" {
		return path, nil
	}
	path, err := exec.LookPath(defaultBinary)
	if err != nil {
		return "", fmt.Errorf("engine binary %q not found on PATH (set %s to override): %w",
			defaultBinary, binaryEnv, err)
	}
	return path, nil
}
