// Package ingestion turns documents into searchable chunks.
//
// A document is a name and its page texts. Ingestion:
//   - normalizes whitespace on each page and splits it into overlapping chunks
//   - embeds the chunks in batches on a worker pool
//   - appends chunks and vectors to storage under a new document generation
//   - moves the document manifest to that generation and prunes the old one
//
// Chunks of the new generation stay invisible to search until the manifest
// moves, so a re-ingestion never shows a mix of old and new chunks.
package ingestion
