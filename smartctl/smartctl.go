// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Go SMART library smartctl reference implementation.
//
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"
	"gopkg.in/yaml.v2"

	"github.com/hdsentry/smart"
)

const (
	linuxCapabilityVersion3 = 0x20080522

	capSysRawIO = 1 << 17
	capSysAdmin = 1 << 21
)

type capHeader struct {
	version uint32
	pid     int
}

type capData struct {
	effective   uint32
	permitted   uint32
	inheritable uint32
}

type capsV3 struct {
	hdr  capHeader
	data [2]capData
}

// checkCaps invokes the capget syscall to check for necessary capabilities. This depends on the
// binary having the capabilities set (via setcap) or running as root.
func checkCaps() {
	caps := new(capsV3)
	caps.hdr.version = linuxCapabilityVersion3

	_, _, errno := unix.RawSyscall(unix.SYS_CAPGET, uintptr(unsafe.Pointer(&caps.hdr)), uintptr(unsafe.Pointer(&caps.data)), 0)
	if errno != 0 {
		fmt.Println("capget() failed:", errno.Error())
		return
	}

	if caps.data[0].effective&capSysRawIO == 0 && caps.data[0].effective&capSysAdmin == 0 {
		fmt.Println("Neither cap_sys_rawio nor cap_sys_admin are in effect. Device access will probably fail.")
	}
}

func scanDevices() {
	files, err := smart.ScanDevices()
	if err != nil {
		fmt.Println(err)
		return
	}
	for _, f := range files {
		fmt.Println(f)
	}
}

func main() {
	fmt.Println("Go smartctl Reference Implementation")
	fmt.Printf("Built with %s on %s (%s)\n\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)

	device := flag.String("device", "", "Device from which to read SMART attributes, e.g., /dev/sda, /dev/nvme0n1")
	typeHint := flag.String("type", "", "Force device type (ata, scsi, nvme) instead of auto-detecting")
	scan := flag.Bool("scan", false, "Scan for drives that support SMART")
	debug := flag.Int("debug", 0, "Debug verbosity (0-2)")
	sanitize := flag.Bool("sanitize", false, "Redact serial numbers in the printed report")
	format := flag.String("format", "json", "Report output format: json or yaml")
	flag.Parse()

	checkCaps()

	if *device != "" {
		cfg := smart.Config{
			DebugLevel:          uint8(*debug),
			SanitizeIdentifiers: *sanitize,
		}

		d, err := smart.Open(*device, *typeHint, cfg)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		defer d.Close()

		report, err := d.Report(*typeHint)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		var out []byte
		switch *format {
		case "yaml":
			out, err = yaml.Marshal(report)
		default:
			out, err = json.MarshalIndent(report, "", "  ")
		}
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		fmt.Println(string(out))
	} else if *scan {
		scanDevices()
	} else {
		flag.PrintDefaults()
		os.Exit(1)
	}
}
