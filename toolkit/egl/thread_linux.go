//go:build linux

package egl

import "golang.org/x/sys/unix"

func currentThreadID() int { return unix.Gettid() }
