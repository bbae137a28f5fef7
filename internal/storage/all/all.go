// Package all wires all built-in storage backends into the storage factory.
//
// This package exists purely for side effects: importing it (even as a blank
// import) runs the init functions of each backend, which register their
// factories and DDL renderers with the storage package. It also points
// config.StorageKinds at the registry so config validation accepts exactly
// the linked backends.
//
// Importing this package makes the following storage kinds available:
//
//   - "mssql"    (countriesgdp/internal/storage/mssql)
//   - "postgres" (countriesgdp/internal/storage/postgres)
//   - "sqlite"   (countriesgdp/internal/storage/sqlite)
package all

import (
	"countriesgdp/internal/config"
	"countriesgdp/internal/storage"
	_ "countriesgdp/internal/storage/mssql"
	_ "countriesgdp/internal/storage/postgres"
	_ "countriesgdp/internal/storage/sqlite"
)

func init() {
	config.StorageKinds = storage.ListKinds
}
