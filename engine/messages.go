package engine

import (
	"errors"
	"fmt"

	"github.com/ftahirops/pcdiag/model"
)

// Message turns an action error into the text shown to the user.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var de *model.DiagError
	path := ""
	if errors.As(err, &de) {
		path = de.Path
	}

	switch {
	case errors.Is(err, model.ErrToolNotFound):
		where := ""
		if path != "" {
			where = fmt.Sprintf(" at %s", path)
		}
		return fmt.Sprintf("S.M.A.R.T. tool not found%s. Place CrystalDiskInfo (DiskInfo32.exe) in a "+
			"CrystalDiskInfo folder next to pcdiag, install smartctl, or set smart.path in the config file.", where)
	case errors.Is(err, model.ErrToolExecutionFailed):
		return fmt.Sprintf("The S.M.A.R.T. tool did not finish: %s. It needs administrator rights; "+
			"accept the elevation prompt and try again.", cause(err, de))
	case errors.Is(err, model.ErrLogParseFailed):
		return fmt.Sprintf("The S.M.A.R.T. tool left no readable log (%s): %s.", path, cause(err, de))
	case errors.Is(err, model.ErrCaptureInProgress):
		return "A S.M.A.R.T. capture is already running. Wait for it to finish."
	case errors.Is(err, model.ErrLaunchFailed):
		return fmt.Sprintf("Could not start the memory diagnostic: %s.", cause(err, de))
	case errors.Is(err, model.ErrLogUnavailable):
		return fmt.Sprintf("Diagnostic history is unavailable: %s.", cause(err, de))
	case errors.Is(err, model.ErrDataUnavailable):
		return fmt.Sprintf("Data unavailable: %s.", cause(err, de))
	}
	return err.Error()
}

// cause returns the underlying reason of a DiagError, or the error itself.
func cause(err error, de *model.DiagError) string {
	if de != nil && de.Err != nil {
		return de.Err.Error()
	}
	return err.Error()
}
