//go:build !unix

package ssdp

import "syscall"

func reuseAddr(_, _ string, _ syscall.RawConn) error {
	return nil
}
