package preflight

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement names an external command the kiosk may run.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// BinaryStatus reports whether a requirement resolved on PATH.
type BinaryStatus struct {
	Requirement
	Available bool
	Detail    string
}

// CheckBinaries resolves each requirement with exec.LookPath.
func CheckBinaries(requirements []Requirement) []BinaryStatus {
	results := make([]BinaryStatus, 0, len(requirements))
	for _, req := range requirements {
		req.Command = strings.TrimSpace(req.Command)
		req.Description = strings.TrimSpace(req.Description)
		status := BinaryStatus{Requirement: req}
		switch {
		case req.Command == "":
			status.Detail = "command not configured"
		default:
			if path, err := exec.LookPath(req.Command); err != nil {
				status.Detail = fmt.Sprintf("binary %q not found", req.Command)
			} else {
				status.Available = true
				status.Command = path
			}
		}
		results = append(results, status)
	}
	return results
}
