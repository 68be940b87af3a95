//go:build purego || !cgo

package gjsqlite

import (
	_ "modernc.org/sqlite"
)

const (
	sqliteDriverType = "sqlite"
	sqliteBuildType  = "purego"
)
