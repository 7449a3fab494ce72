// Package vectorstore provides durable storage of bookmark records with
// similarity search.
//
// The package offers a single Store interface with multiple provider
// implementations selected via config:
//
//   - SQLiteStore (default): embedded SQLite via modernc.org/sqlite.
//     Embeddings are stored as float32 blobs and similarity is computed
//     in-process, mirroring what a pgvector match function does server-side.
//     A UNIQUE index on external_id enforces the dedup invariant at the
//     storage layer.
//   - ChromemStore: embedded chromem-go database with a persisted external-id
//     index alongside it.
//   - QdrantStore: external Qdrant server over gRPC.
//   - MemoryStore: in-process store for tests and throwaway setups.
//
// All implementations enforce external-id uniqueness at the application
// layer in addition to any native constraint, so the contract is verifiable
// without a real backing service.
//
// # Usage
//
//	store, err := vectorstore.New(cfg.VectorStore, logger)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	id, err := store.Insert(ctx, &bookmark.Record{
//	    ExternalID: "1842",
//	    Content:    "interesting thread about B-trees",
//	    Embedding:  embedding,
//	})
//
// Similarity listing is a full scan in the embedded providers. That is
// acceptable for personal bookmark sets and is an explicit non-goal to fix
// here; move to the qdrant provider when the set outgrows it.
package vectorstore
