// Package prompt wraps interactive terminal prompts used by the CLI.
package prompt

import (
	"errors"
	"strings"

	"github.com/manifoldco/promptui"
)

// ErrAborted is returned when the user cancels a prompt with Ctrl+C.
var ErrAborted = errors.New("aborted")

// Secret prompts for a masked secret value.
func Secret(label string) (string, error) {
	p := promptui.Prompt{
		Label: label,
		Mask:  '*',
	}

	result, err := p.Run()
	if errors.Is(err, promptui.ErrInterrupt) {
		return "", ErrAborted
	}
	return result, err
}

// Confirm asks a yes/no question, defaulting to no.
func Confirm(label string) (bool, error) {
	p := promptui.Prompt{
		Label:     label + " [y/N]",
		IsConfirm: true,
	}

	result, err := p.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) {
			return false, ErrAborted
		}
		// "n" and empty input surface as ErrAbort.
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, err
	}

	result = strings.ToLower(result)
	return result == "y" || result == "yes", nil
}
