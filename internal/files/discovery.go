package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	apperrors "github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/internal/errors"
	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/internal/ingest"
)

// FileInfo describes a discovered input file.
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
	Format  ingest.Format
}

// Discovery resolves relative inputs against a base path.
type Discovery struct {
	basePath string
}

// NewDiscovery creates a discovery rooted at basePath.
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

func (d *Discovery) resolve(p string) string {
	if filepath.IsAbs(p) || d.basePath == "" {
		return p
	}
	return filepath.Join(d.basePath, p)
}

// FindSalesFiles lists the CSV and XLSX files directly inside dir, sorted by
// name. Hidden files and Office lock files are ignored.
func (d *Discovery) FindSalesFiles(dir string) ([]FileInfo, error) {
	fullPath := d.resolve(dir)
	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("failed to read directory %s", fullPath), err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || skipName(entry.Name()) {
			continue
		}
		format, err := ingest.DetectFormat(entry.Name())
		if err != nil {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(fullPath, entry.Name()),
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
			Format:  format,
		})
	}
	sortByName(files)
	return files, nil
}

// FindFilesByPattern returns the supported files matching a glob.
func (d *Discovery) FindFilesByPattern(pattern string) ([]FileInfo, error) {
	matches, err := filepath.Glob(d.resolve(pattern))
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("invalid pattern %s", pattern), err)
	}

	var files []FileInfo
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil || info.IsDir() || skipName(info.Name()) {
			continue
		}
		format, err := ingest.DetectFormat(match)
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    match,
			Name:    info.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
			Format:  format,
		})
	}
	sortByName(files)
	return files, nil
}

// Expand turns arguments into a de-duplicated list of input paths in
// argument order. Plain file paths are passed through unchecked so that the
// reader reports missing or unsupported files per input. A directory or glob
// that yields nothing is an error.
func (d *Discovery) Expand(args []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		key := filepath.Clean(p)
		if !seen[key] {
			seen[key] = true
			out = append(out, p)
		}
	}

	for _, arg := range args {
		var (
			found []FileInfo
			err   error
		)
		switch {
		case hasGlobMeta(arg):
			found, err = d.FindFilesByPattern(arg)
		case isDir(d.resolve(arg)):
			found, err = d.FindSalesFiles(arg)
		default:
			add(d.resolve(arg))
			continue
		}
		if err != nil {
			return nil, err
		}
		if len(found) == 0 {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("sales files in %s", arg))
		}
		for _, f := range found {
			add(f.Path)
		}
	}
	return out, nil
}

func skipName(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$")
}

func hasGlobMeta(p string) bool {
	return strings.ContainsAny(p, "*?[")
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}

func sortByName(files []FileInfo) {
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
}
