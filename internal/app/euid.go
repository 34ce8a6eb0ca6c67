package app

import "os"

// defaultEUID reports the effective user id of the running process.
func defaultEUID() int {
	return os.Geteuid()
}
