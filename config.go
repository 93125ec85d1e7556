// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

package smart

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Config holds the caller-facing configuration knobs of spec.md §6.2. The zero value is the
// conservative default: silent logging, identifiers left intact, LPO taken from the transport's
// own capability query rather than assumed.
type Config struct {
	// DebugLevel selects command trace (1) and additionally hex dumps (2); 0 is silent.
	DebugLevel uint8
	// SanitizeIdentifiers makes Report overwrite the device serial number with X's. IEEE OUI/EUI
	// identifiers are not zeroed: the NVMe codec returns them as read, and Report omits them.
	SanitizeIdentifiers bool
	// NVMeForceLPO assumes Log Page Offset support even when the transport does not advertise it.
	NVMeForceLPO bool
}

// entry builds the logrus.Entry the rest of the package logs through, with its level set once
// from DebugLevel (spec.md §6.2) before any device is opened.
func (c Config) entry() *logrus.Entry {
	logger := logrus.New()
	switch {
	case c.DebugLevel >= 2:
		logger.SetLevel(logrus.TraceLevel)
	case c.DebugLevel == 1:
		logger.SetLevel(logrus.DebugLevel)
	default:
		logger.SetLevel(logrus.WarnLevel)
	}
	return logrus.NewEntry(logger)
}

// AttrConv names the raw-value conversion a drive model preset applies to one SMART attribute
// (drivedb's "-v id,conv[,name]" syntax).
type AttrConv struct {
	Conv string `toml:"conv"`
	Name string `toml:"name"`
}

// DriveModel is one entry of the external drive model database referenced by spec.md §1/§6.2:
// a family name, the regexes that select it, an optional warning, and per-attribute presets.
type DriveModel struct {
	Family        string              `toml:"family"`
	ModelRegex    string              `toml:"model_regex"`
	FirmwareRegex string              `toml:"firmware_regex"`
	WarningMsg    string              `toml:"warning"`
	Presets       map[string]AttrConv `toml:"presets"`
}

// DriveDB is the decoded form of the TOML file cmd/mkdrivedb produces from smartmontools'
// drivedb.h. drivedb/drivedb.go writes its keys under the Go field names (ModelRegex,
// FirmwareRegex, WarningMsg), which do not match the tags here, so those three fields stay empty
// when its output is loaded.
type DriveDB struct {
	Drives []DriveModel `toml:"drives"`
}

// LoadDriveDB reads and decodes a drivedb.toml file from path.
func LoadDriveDB(path string) (DriveDB, error) {
	f, err := os.Open(path)
	if err != nil {
		return DriveDB{}, errors.Wrap(err, "smart: open drivedb")
	}
	defer f.Close()

	var db DriveDB
	if _, err := toml.DecodeReader(f, &db); err != nil {
		return DriveDB{}, errors.Wrap(err, "smart: decode drivedb")
	}
	return db, nil
}

// Match returns the first DriveModel whose Family equals family. ModelRegex and FirmwareRegex are
// not evaluated; the matching policy itself (drive-model heuristics) is out of scope here
// (spec.md §1 Non-goals) — this only loads and exposes the table for an external formatter to
// consult.
func (db DriveDB) Match(family string) (DriveModel, bool) {
	for _, dm := range db.Drives {
		if dm.Family == family {
			return dm, true
		}
	}
	return DriveModel{}, false
}
