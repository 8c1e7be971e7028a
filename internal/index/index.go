package index

// DocumentIndex defines the document catalogue operations.
// Consumers depend on this interface rather than on *DB.
type DocumentIndex interface {
	UpsertDocument(d DocumentRow, body string, links []string) error
	DeleteDocument(path string) error
	GetChecksum(path string) (string, error)
	GetDocument(path string) (*DocumentRow, error)
	ListDocuments(limit, offset int, blockType string) ([]DocumentRow, int, error)
	Search(query string, limit int) ([]SearchResult, error)
	LinkedFrom(target string) ([]string, error)
	AllPaths() (map[string]struct{}, error)
	AllChecksums() (map[string]string, error)
	Close() error
}

// Verify *DB satisfies DocumentIndex at compile time.
var _ DocumentIndex = (*DB)(nil)
