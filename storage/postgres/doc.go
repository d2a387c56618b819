// Package postgres implements storage.Store on PostgreSQL with the pgvector
// extension, using gorm. Similarity search runs in the database with the cosine
// distance operator (<=>); filters become typed WHERE clauses.
//
// Chunks reference their posting with ON DELETE CASCADE, so deleting a posting
// removes its chunks in the same statement.
package postgres
