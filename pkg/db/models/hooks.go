package models

import "github.com/google/uuid"

// ensureID assigns a client-side UUID so inserts work the same on Postgres and
// sqlite (neither driver is asked for a server default).
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
