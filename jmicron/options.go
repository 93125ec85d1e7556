// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

package jmicron

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ParseOptions parses a device-type spec of the form "jmb39x|jmb39x-q|jms56x,PORT[,sLBA][,force]"
// (spec.md §4.4.2), mirroring the historical "-d" option grammar: PORT is 0..4, LBA defaults to 33
// and must be 33..62 when given.
func ParseOptions(typeStr string) (Options, error) {
	prefix, rest, ok := strings.Cut(typeStr, ",")
	if !ok {
		return Options{}, errors.Errorf("jmicron: type %q missing port", typeStr)
	}

	var version uint8
	switch prefix {
	case "jmb39x":
		version = 0
	case "jmb39x-q":
		version = 1
	case "jms56x":
		version = 2
	default:
		return Options{}, errors.Errorf("jmicron: unknown type %q", typeStr)
	}

	fields := strings.Split(rest, ",")
	port, err := strconv.ParseUint(fields[0], 10, 8)
	if err != nil || port > 4 {
		return Options{}, errors.Errorf("jmicron: invalid port in %q", typeStr)
	}

	opts := Options{Version: version, Port: uint8(port), LBA: defaultLBA}
	for _, f := range fields[1:] {
		switch {
		case strings.HasPrefix(f, "s"):
			lba, err := strconv.ParseUint(f[1:], 10, 8)
			if err != nil || lba < 33 || lba > 62 {
				return Options{}, errors.Errorf("jmicron: invalid LBA in %q", typeStr)
			}
			opts.LBA = uint8(lba)
		case f == "force":
			opts.Force = true
		default:
			return Options{}, errors.Errorf("jmicron: unknown option %q in %q", f, typeStr)
		}
	}
	return opts, nil
}
