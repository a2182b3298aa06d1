//go:build linux

// Copyright 2026 the ucx Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package osprot

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/SeyedMir/ucx/rcache"
)

// LinuxChecker answers the OS-protection dominance check by reading
// /proc/self/maps: Linux has no syscall that reports "what protection does
// address X currently have", so this reads the kernel's own mapping table
// instead of tracking protection state independently.
type LinuxChecker struct {
	pageSize uintptr
}

// NewLinuxChecker returns a LinuxChecker using the platform's page size.
func NewLinuxChecker() *LinuxChecker {
	return &LinuxChecker{pageSize: uintptr(unix.Getpagesize())}
}

// NewDefault returns the production OS-protection checker for this
// platform.
func NewDefault() rcache.ProtChecker {
	return NewLinuxChecker()
}

// Dominates implements rcache.ProtChecker.
func (c *LinuxChecker) Dominates(start, end uintptr, want rcache.Prot) (bool, error) {
	mappings, err := readSelfMaps()
	if err != nil {
		return false, err
	}
	for p := start &^ (c.pageSize - 1); p < end; p += c.pageSize {
		prot, ok := mappings.lookup(p)
		if !ok || !prot.Contains(want) {
			return false, nil
		}
	}
	return true, nil
}

type mapEntry struct {
	start, end uintptr
	prot       rcache.Prot
}

type mapList []mapEntry

func (m mapList) lookup(addr uintptr) (rcache.Prot, bool) {
	for _, e := range m {
		if e.start <= addr && addr < e.end {
			return e.prot, true
		}
	}
	return 0, false
}

func readSelfMaps() (mapList, error) {
	f, err := os.Open("/proc/self/maps")
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out mapList
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			continue
		}
		bounds := strings.SplitN(fields[0], "-", 2)
		if len(bounds) != 2 {
			continue
		}
		start, err1 := strconv.ParseUint(bounds[0], 16, 64)
		end, err2 := strconv.ParseUint(bounds[1], 16, 64)
		if err1 != nil || err2 != nil {
			continue
		}

		perm := fields[1]
		var prot rcache.Prot
		if len(perm) >= 3 {
			if perm[0] == 'r' {
				prot |= rcache.ProtRead
			}
			if perm[1] == 'w' {
				prot |= rcache.ProtWrite
			}
			if perm[2] == 'x' {
				prot |= rcache.ProtExec
			}
		}
		out = append(out, mapEntry{uintptr(start), uintptr(end), prot})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
