//go:build windows

package audio

import (
	"errors"
	"os"
)

var errSuspendUnsupported = errors.New("audio: pausing speech is not supported on windows")

func suspend(*os.Process) error { return errSuspendUnsupported }

func resume(*os.Process) error { return errSuspendUnsupported }
