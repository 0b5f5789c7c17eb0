// Package db embeds the SQL migrations so the server and tests apply the
// same schema.
package db

import "embed"

// Migrations holds migrations/*.up.sql, applied in lexical order.
//
//go:embed migrations/*.up.sql
var Migrations embed.FS
