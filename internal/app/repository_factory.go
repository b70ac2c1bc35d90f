package app

import (
	"fmt"

	identityDomain "github.com/felixgeelhaar/atelier/internal/identity/domain"
	identityPersistence "github.com/felixgeelhaar/atelier/internal/identity/infrastructure/persistence"
	projectsDomain "github.com/felixgeelhaar/atelier/internal/projects/domain"
	projectsPersistence "github.com/felixgeelhaar/atelier/internal/projects/infrastructure/persistence"
	"github.com/felixgeelhaar/atelier/internal/shared/infrastructure/database"
)

// RepositoryFactory creates repositories based on the database driver.
type RepositoryFactory struct {
	conn   database.Connection
	driver database.Driver
}

// NewRepositoryFactory creates a new repository factory.
func NewRepositoryFactory(conn database.Connection) *RepositoryFactory {
	return &RepositoryFactory{
		conn:   conn,
		driver: conn.Driver(),
	}
}

// ProjectRepository creates a project repository for the configured driver.
func (f *RepositoryFactory) ProjectRepository() (projectsDomain.Repository, error) {
	switch f.driver {
	case database.DriverPostgres:
		return projectsPersistence.NewPostgresProjectRepository(f.conn), nil
	case database.DriverSQLite:
		return projectsPersistence.NewSQLiteProjectRepository(f.conn), nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// UserRepository creates a user repository for the configured driver.
func (f *RepositoryFactory) UserRepository() (identityDomain.Repository, error) {
	switch f.driver {
	case database.DriverPostgres:
		return identityPersistence.NewPostgresUserRepository(f.conn), nil
	case database.DriverSQLite:
		return identityPersistence.NewSQLiteUserRepository(f.conn), nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}
