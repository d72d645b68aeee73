package builder

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-ps"
)

// ensureSingleInstance rejects the invocation when another process with
// this executable's name is already running anywhere on the machine.
// Concurrent builds of the same project would interleave their session
// records and fight over the scratch directory; the process scan cannot
// tell projects apart, so it is deliberately machine-wide.
func ensureSingleInstance() error {
	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve own executable: %w", err)
	}

	name := filepath.Base(self)

	processes, err := ps.Processes()
	if err != nil {
		return fmt.Errorf("list processes: %w", err)
	}

	ownPID := os.Getpid()

	for _, process := range processes {
		if process.Pid() == ownPID {
			continue
		}

		if strings.EqualFold(process.Executable(), name) {
			return fmt.Errorf("%w (pid %d)", errBuildRunning, process.Pid())
		}
	}

	return nil
}
