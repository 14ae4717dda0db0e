package milestone

import "context"

type (
	// Collection is a named bucket of records on the backend, one per milestone.
	Collection struct {
		ID     string
		Name   string
		Schema []FieldSpec
	}

	// Backend is the hosted record store.
	Backend interface {
		// Authenticate obtains a fresh admin session. Failures wrap ErrAuthentication.
		Authenticate(ctx context.Context) (Session, error)
		Health(ctx context.Context) error
	}

	// Session is an authenticated view of the backend.
	// Missing records or collections are reported as ErrNotFound, any other non-2xx as *BackendError.
	Session interface {
		ListCollections(ctx context.Context) ([]Collection, error)
		CreateCollection(ctx context.Context, c Collection) (Collection, error)
		UpdateCollection(ctx context.Context, id string, c Collection) (Collection, error)

		CreateRecord(ctx context.Context, collection string, data Record) (Record, error)
		GetRecord(ctx context.Context, collection, id string) (Record, error)
		UpdateRecord(ctx context.Context, collection, id string, data Record) (Record, error)
		DeleteRecord(ctx context.Context, collection, id string) error
		// ListRecords returns the whole collection.
		ListRecords(ctx context.Context, collection string) ([]Record, error)
	}
)
