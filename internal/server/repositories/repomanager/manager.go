// Package repomanager vends repositories bound to a query handle, so the same
// constructors serve both the shared pool and a transaction.
package repomanager

import (
	"github.com/dmitrijs2005/workloadtracker/internal/server/database"
	"github.com/dmitrijs2005/workloadtracker/internal/server/repositories/users"
	"github.com/dmitrijs2005/workloadtracker/internal/server/repositories/workloads"
)

type RepositoryManager interface {
	Users(q database.Querier) users.Repository
	Workloads(q database.Querier) workloads.Repository
}

// SQLRepositoryManager builds the SQL repositories. They work unchanged on
// SQLite and MySQL.
type SQLRepositoryManager struct{}

func NewSQLRepositoryManager() *SQLRepositoryManager {
	return &SQLRepositoryManager{}
}

// Users returns a users.Repository bound to q.
func (m *SQLRepositoryManager) Users(q database.Querier) users.Repository {
	return users.NewSQLRepository(q)
}

// Workloads returns a workloads.Repository bound to q.
func (m *SQLRepositoryManager) Workloads(q database.Querier) workloads.Repository {
	return workloads.NewSQLRepository(q)
}
