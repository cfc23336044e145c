package system

import (
	"os"
	"os/user"
	"runtime"
	"time"
)

// Info is the host snapshot embedded in verification reports so a
// reviewer can tell where a wipe ran.
type Info struct {
	Hostname  string    `json:"hostname"`
	OS        string    `json:"os"`
	Arch      string    `json:"arch"`
	CPUCount  int       `json:"cpu_count"`
	GoVersion string    `json:"go_version"`
	Username  string    `json:"username"`
	Timestamp time.Time `json:"timestamp"`
}

// CollectInfo gathers the host snapshot. Lookup failures leave fields
// empty rather than failing the report.
func CollectInfo() Info {
	info := Info{
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		CPUCount:  runtime.NumCPU(),
		GoVersion: runtime.Version(),
		Timestamp: time.Now(),
	}
	if host, err := os.Hostname(); err == nil {
		info.Hostname = host
	}
	if u, err := user.Current(); err == nil {
		info.Username = u.Username
	}
	return info
}
