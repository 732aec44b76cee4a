package database

import "taskbot/core/database/dbconf"

// Config holds database connection settings shared across bots.
// It is an alias of dbconf.Config so that config structs can embed the same
// type without importing this package.
type Config = dbconf.Config
