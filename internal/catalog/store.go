package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store is the persistence contract C5 exposes to the rest of the system.
// Two implementations exist: Postgres (default) and DynamoDB, selected at
// startup by CATALOG_STORE_DRIVER.
type Store interface {
	// Create persists service atomically, failing with errs.NameConflict if
	// the name is already taken.
	Create(ctx context.Context, service *Service) error

	// Get returns a service with its operations eagerly loaded, by ID.
	Get(ctx context.Context, id uuid.UUID) (*Service, error)

	// GetByName returns a service with its operations eagerly loaded, by
	// unique name — the lookup the runtime translator uses on every call.
	GetByName(ctx context.Context, name string) (*Service, error)

	// List returns the summary projection for every service.
	List(ctx context.Context) ([]Summary, error)

	// Delete removes service and cascades to its operations.
	Delete(ctx context.Context, id uuid.UUID) error

	// MarkRegistered transactionally records a successful gateway
	// registration, including each operation's assigned gateway tool ID.
	MarkRegistered(ctx context.Context, id uuid.UUID, binding GatewayBinding, toolIDsByOperation map[string]string) error

	// ClearRegistration transactionally clears a service's gateway binding
	// and every operation's gateway tool ID.
	ClearRegistration(ctx context.Context, id uuid.UUID) error

	// TryBeginRegistration atomically transitions registered=false->true,
	// returning errs.AlreadyRegistered if another caller won the race or the
	// service was already registered. Serializes concurrent registration of
	// the same service via a conditional update.
	TryBeginRegistration(ctx context.Context, id uuid.UUID) error

	// TouchWSDLAccess best-effort records the last-accessed time for a WSDL
	// URL; callers must not propagate its errors.
	TouchWSDLAccess(ctx context.Context, wsdlURL, serviceName string, at time.Time) error
}
