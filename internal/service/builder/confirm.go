package builder

import (
	"errors"

	"github.com/manifoldco/promptui"
)

// confirmRollback decides whether a failed build's changes should be
// restored. With --yes the answer is always affirmative. An interactive
// prompt failure (no terminal attached) defaults to restoring state,
// the safe choice for unattended runs.
func confirmRollback(opts *Options) bool {
	if opts.AssumeYes {
		return true
	}

	prompt := promptui.Prompt{
		Label:     "Build failed, roll back the recorded changes",
		IsConfirm: true,
		Default:   "y",
	}

	if _, err := prompt.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false
		}

		return true
	}

	return true
}
