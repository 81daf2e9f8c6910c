package badger

import "github.com/poiesic/colloquy/storage"

// OpenRepositories opens on-disk chunk and document repositories at path.
func OpenRepositories(path string) (storage.ChunkRepository, storage.DocumentRepository, *Backend, error) {
	backend, err := OpenBackend(path, false)
	if err != nil {
		return nil, nil, nil, err
	}
	return newRepositories(backend)
}

func newRepositories(backend *Backend) (storage.ChunkRepository, storage.DocumentRepository, *Backend, error) {
	chunkRepo, err := NewChunkRepository(backend)
	if err != nil {
		backend.Close()
		return nil, nil, nil, err
	}
	return chunkRepo, NewDocumentRepository(backend), backend, nil
}
