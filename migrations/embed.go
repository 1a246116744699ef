// Package migrations embeds the SQL schema so the binary can migrate its
// database without the files on disk. Import it for side effects.
package migrations

import (
	"embed"

	"github.com/nerrad567/gray-logic-holograms/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "."
}
