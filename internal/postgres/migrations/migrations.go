// Package migrations embeds the SQL schema files applied by the migrate
// command, in lexical order.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

// Files lists the migrations in apply order.
var Files = []string{
	"001_create_employees.sql",
	"002_create_projects.sql",
	"003_create_tasks.sql",
}
