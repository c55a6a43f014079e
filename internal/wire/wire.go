// Package wire provides dependency injection for the garage application.
// It creates singleton services with lazy initialization.
package wire

import (
	"log"
	"sync"

	"github.com/example/garage/internal/adapters/sqlite"
	"github.com/example/garage/internal/app"
	"github.com/example/garage/internal/db"
	"github.com/example/garage/internal/ports/primary"
)

var (
	workflowService primary.WorkflowService
	once            sync.Once
)

// WorkflowService returns the singleton WorkflowService instance.
func WorkflowService() primary.WorkflowService {
	once.Do(initServices)
	return workflowService
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	database, err := db.GetDB()
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	store := sqlite.NewWorkflowStore(database)
	workflowService = app.NewWorkflowService(store)
}
