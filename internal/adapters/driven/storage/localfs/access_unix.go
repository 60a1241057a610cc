//go:build unix

package localfs

import "golang.org/x/sys/unix"

// checkAccess asks the kernel whether the process may list, read and
// create entries in dir.
func checkAccess(dir string) error {
	return unix.Access(dir, unix.R_OK|unix.W_OK|unix.X_OK)
}
