// file_utils.go - shared file management code
package diskmanager

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/tphakala/swingcam/internal/errors"
)

// allowedFileTypes are the clip extensions considered for deletion. Anything
// else in the clip directory is left alone.
var allowedFileTypes = []string{".mp4", ".mkv", ".avi"}

// ClipFile represents one saved clip eligible for retention handling.
type ClipFile struct {
	Path      string
	Size      int64
	Timestamp time.Time
}

// GetClipFiles returns the clips under baseDir, oldest first. In-progress
// encodes (temp files) and unrelated files are skipped.
func GetClipFiles(baseDir string) ([]ClipFile, error) {
	var files []ClipFile

	err := filepath.Walk(baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if !isAllowedFileType(info.Name()) {
			return nil
		}
		files = append(files, ClipFile{
			Path:      path,
			Size:      info.Size(),
			Timestamp: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			// Nothing saved yet
			return nil, nil
		}
		return nil, errors.New(fmt.Errorf("failed to scan clip directory: %w", err)).
			Component("diskmanager").
			Category(errors.CategoryDiskCleanup).
			Context("base_dir", baseDir).
			Build()
	}

	// Oldest first, so deletion walks in retention order
	sort.Slice(files, func(i, j int) bool {
		return files[i].Timestamp.Before(files[j].Timestamp)
	})

	return files, nil
}

// isAllowedFileType checks if the file extension is one retention may delete.
func isAllowedFileType(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range allowedFileTypes {
		if ext == allowed {
			return true
		}
	}
	return false
}
