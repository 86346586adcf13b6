// Package database provides the data access layer for the application.
//
// # Architecture
//
// Domain data lives in a document store (see internal/docstore); the
// repositories in the sub-packages translate between typed entities and
// store documents:
//
//	database/
//	├── database.go      # SQLite connection setup and migrations
//	├── restaurants/     # Restaurant cache, de-duplicated bulk writes
//	├── visits/          # Visit history
//	├── bookmarks/       # Bookmark groups and bookmarks
//	├── syncmeta/        # Append-only sync log
//	└── users/           # Local accounts (gorm, not the document store)
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase("./matjip.db", logger)
//	store := docstore.NewSQLStore(db.DB)
//
//	restaurantsRepo := restaurants.NewRepository(store)
//	visitsRepo := visits.NewRepository(store)
//
//	restaurant, err := restaurantsRepo.GetByID(ctx, id)
//
// # Conversion Boundary
//
// Each repository owns a pair of encode/decode functions for its collection.
// Decoding validates required fields and normalizes loosely typed values
// (numbers stored as floats, times stored as strings or native timestamps),
// so nothing outside the repository sees a docstore.Document.
//
// # Adding a New Domain
//
//  1. Create a new sub-package: internal/database/<domain>/
//  2. Define a Repository struct with a docstore.Store field
//  3. Add NewRepository(store docstore.Store) constructor
//  4. Write encode/decode for the collection
//  5. Add compile-time interface check: var _ SomeInterface = (*Repository)(nil)
package database
