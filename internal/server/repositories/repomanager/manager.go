package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/incidentportal/internal/dbx"
	"github.com/dmitrijs2005/incidentportal/internal/server/repositories/incidents"
	"github.com/dmitrijs2005/incidentportal/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DB handle (pool or tx)
// and owns schema migrations.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Incidents(db dbx.DBTX) incidents.Repository
}
