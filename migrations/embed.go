// Package migrations contiene las migraciones embebidas de la base de datos.
package migrations

import (
	"embed"
)

//go:embed postgres/*.sql
var FS embed.FS

// Dir es el directorio de migraciones dentro del FS embebido
const Dir = "postgres"
