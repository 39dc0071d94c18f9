package paths

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charlievieth/fastwalk"

	"github.com/autobrr/tqv/pkg/logger"
)

type Path struct {
	Path         string
	FileName     string
	Size         int64
	ModifiedTime time.Time
}

var (
	log = logger.GetLogger("paths")
)

// Listings returns the files below folder whose extension matches one of exts
// (case-insensitive, with the leading dot), sorted by path.
func Listings(folder string, exts ...string) ([]Path, error) {
	var (
		found []Path
		mutex sync.Mutex
	)

	conf := fastwalk.Config{
		Follow: false,
	}

	walkFn := func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsPermission(err) {
				log.Warnf("Permission error on %q, continuing walk...", path)
				return nil
			}
			return err
		}

		if d.IsDir() || !hasExt(path, exts) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			log.WithError(err).Errorf("Failed to get file info for %s", path)
			return nil
		}

		mutex.Lock()
		found = append(found, Path{
			Path:         path,
			FileName:     info.Name(),
			Size:         info.Size(),
			ModifiedTime: info.ModTime(),
		})
		mutex.Unlock()

		return nil
	}

	if err := fastwalk.Walk(&conf, folder, walkFn); err != nil {
		return nil, err
	}

	sort.Slice(found, func(i, j int) bool { return found[i].Path < found[j].Path })
	return found, nil
}

func hasExt(path string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}

	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == strings.ToLower(e) {
			return true
		}
	}

	return false
}
