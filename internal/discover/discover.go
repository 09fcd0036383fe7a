// Package discover walks a backup snapshot directory and resolves the current
// section files. The backup tool lays snapshots out as one directory per
// notebook with one file per section, re-exporting sections under date-tagged
// names, so several files of the same section can coexist until old exports
// are pruned.
package discover

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/hyperjump/noto/internal/models"
)

// backupDateSuffix matches the date tag the backup tool appends to exported
// file names, e.g. "Algorithm (On 1-4-2026)".
var backupDateSuffix = regexp.MustCompile(`\s*\(On [\d.\-]+\)$`)

// recycleBinDir is created by the backup tool for deleted pages; its contents
// are not user notes.
const recycleBinDir = "recyclebin"

// Discoverer resolves the section files of a backup snapshot.
type Discoverer struct {
	extensions map[string]bool
}

// New returns a Discoverer that accepts files with the given extensions
// (including the leading dot, case-insensitive). With no extensions every
// regular file is accepted.
func New(extensions []string) *Discoverer {
	var m map[string]bool
	if len(extensions) > 0 {
		m = make(map[string]bool, len(extensions))
		for _, ext := range extensions {
			m[strings.ToLower(ext)] = true
		}
	}
	return &Discoverer{extensions: m}
}

// Discover walks root and returns one SourceFile per (notebook, section),
// sorted by notebook then section. Immediate subdirectories of root are
// notebooks; files inside them are sections. When a section appears under
// several date-tagged exports the newest file by modification time wins.
// RecycleBin directories and hidden entries are skipped.
func (d *Discoverer) Discover(root string) ([]models.SourceFile, error) {
	notebooks, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read backup root: %w", err)
	}

	type candidate struct {
		file models.SourceFile
	}
	latest := make(map[models.Group]candidate)

	for _, nb := range notebooks {
		if !nb.IsDir() || skipName(nb.Name()) {
			continue
		}
		nbPath := filepath.Join(root, nb.Name())
		entries, err := os.ReadDir(nbPath)
		if err != nil {
			return nil, fmt.Errorf("read notebook %s: %w", nb.Name(), err)
		}
		for _, entry := range entries {
			if entry.IsDir() || skipName(entry.Name()) {
				continue
			}
			if !d.accepts(entry.Name()) {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				// Raced with a snapshot rewrite; the next build picks it up.
				continue
			}
			group := models.Group{
				Notebook: nb.Name(),
				Section:  sectionName(entry.Name()),
			}
			sf := models.SourceFile{
				Group:   group,
				Path:    filepath.Join(nbPath, entry.Name()),
				Version: info.ModTime().UnixNano(),
			}
			if prev, ok := latest[group]; !ok || sf.Version > prev.file.Version {
				latest[group] = candidate{file: sf}
			}
		}
	}

	files := make([]models.SourceFile, 0, len(latest))
	for _, c := range latest {
		files = append(files, c.file)
	}
	sort.Slice(files, func(i, j int) bool {
		if files[i].Notebook != files[j].Notebook {
			return files[i].Notebook < files[j].Notebook
		}
		return files[i].Section < files[j].Section
	})
	return files, nil
}

// accepts reports whether the file name has an allowed extension.
func (d *Discoverer) accepts(name string) bool {
	if d.extensions == nil {
		return true
	}
	return d.extensions[strings.ToLower(filepath.Ext(name))]
}

// skipName reports whether a directory entry should be ignored entirely.
func skipName(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	return strings.EqualFold(name, recycleBinDir) || strings.EqualFold(name, "recycle bin")
}

// sectionName derives the section name from a file name: base name without
// extension and without the backup date suffix, so re-exports of the same
// section map to the same (notebook, section) group.
func sectionName(fileName string) string {
	name := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	name = backupDateSuffix.ReplaceAllString(name, "")
	return strings.TrimSpace(name)
}
