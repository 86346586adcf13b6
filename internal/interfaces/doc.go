// Package interfaces holds compile-time checks that the concrete stores,
// services and clients satisfy the narrow interfaces their consumers declare.
//
// Consumers own their interfaces: the HTTP controllers declare
// RestaurantStore, VisitStore, BookmarkStore, SyncRunner and AuditLogger in
// internal/http; the synchronizer declares RegionFetcher, RestaurantCache and
// SyncLog in internal/services; the scheduler, the task queue and the CLI
// each declare the part of *services.SyncService they call.
//
// # Adding a New Document Store Backend
//
//  1. Implement docstore.Store and docstore.Batch in internal/docstore/
//
//  2. Add the backend name to config.StoreBackend and open it in
//     entrypoint.openStore
//
//  3. Add a compile-time check:
//
//     var _ docstore.Store = (*docstore.MyStore)(nil)
//
// # Compile-Time Interface Checks
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go.
package interfaces
