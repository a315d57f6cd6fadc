//go:build !linux

package egl

func currentThreadID() int { return 0 }
