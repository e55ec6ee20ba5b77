package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

const Table = "notification_schema_migrations"
