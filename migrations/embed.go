package migrations

import (
	"embed"
)

//go:embed postgres/*.sql
var FS embed.FS

// Dir — каталог миграций внутри встроенной файловой системы.
const Dir = "postgres"
