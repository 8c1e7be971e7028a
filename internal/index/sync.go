package index

import (
	"log/slog"
	"strings"

	"github.com/starford/blockpad/internal/parser"
	"github.com/starford/blockpad/internal/storage"
)

// Sync walks the document store and brings the index up to date:
//   - new/changed documents are parsed and upserted
//   - documents removed from disk are deleted from the index
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := IndexDocument(db, m.Path, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", m.Path))
		}
	}

	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteDocument(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// IndexDocument parses data and upserts it under path.
func IndexDocument(db DocumentIndex, path string, data []byte) error {
	res, err := parser.Parse(data)
	if err != nil {
		return err
	}
	row := DocumentRow{
		Path:     path,
		Title:    res.Title,
		Checksum: storage.Checksum(data),
		Types:    res.Types,
		Tags:     res.Tags,
		Blocks:   res.Blocks,
	}
	return db.UpsertDocument(row, res.Body, res.Links)
}

func isDocument(path string) bool {
	base := path[strings.LastIndexAny(path, `/\`)+1:]
	return strings.HasSuffix(base, storage.Extension) && !strings.HasPrefix(base, ".")
}
