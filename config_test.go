// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

package smart

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDriveDB(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "drivedb.toml")
	content := `
[[drives]]
family = "Seagate Barracuda"
model_regex = "ST[0-9]+DM[0-9]+-.*"
firmware_regex = ".*"

[drives.presets.5]
conv = "raw48"
name = "Reallocated_Sector_Ct"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	db, err := LoadDriveDB(path)
	require.NoError(t, err)
	require.Len(t, db.Drives, 1)
	assert.Equal(t, "Seagate Barracuda", db.Drives[0].Family)

	dm, ok := db.Match("Seagate Barracuda")
	assert.True(t, ok)
	assert.Equal(t, "raw48", dm.Presets["5"].Conv)

	_, ok = db.Match("does not exist")
	assert.False(t, ok)
}

func TestLoadDriveDBMissingFile(t *testing.T) {
	_, err := LoadDriveDB("/nonexistent/drivedb.toml")
	assert.Error(t, err)
}

func TestConfigEntryLevels(t *testing.T) {
	assert.NotNil(t, Config{}.entry())
	assert.NotNil(t, Config{DebugLevel: 1}.entry())
	assert.NotNil(t, Config{DebugLevel: 2}.entry())
}
