package util

import (
	"bytes"
	"os"
)

// IsRunningInDocker reports whether the process runs inside a container,
// either through the /.dockerenv marker or the init process cgroup
func IsRunningInDocker() bool {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}

	cgroup, err := os.ReadFile("/proc/1/cgroup")
	if err != nil {
		return false
	}

	return bytes.Contains(cgroup, []byte("docker")) || bytes.Contains(cgroup, []byte("containerd"))
}
