package media

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// AlternativeInFolder picks a different image from the same directory as
// the current one. Used by the curation "buscar outra" action on local
// image banks. Returns false when the folder has no other image.
func AlternativeInFolder(current Ref) (Ref, bool) {
	dir := filepath.Dir(current.Source)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Ref{}, false
	}

	currentName := filepath.Base(current.Source)
	var candidates []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if name == currentName {
			continue
		}
		if !imageExtensions[strings.ToLower(filepath.Ext(name))] {
			continue
		}
		candidates = append(candidates, name)
	}
	if len(candidates) == 0 {
		return Ref{}, false
	}

	pick := candidates[rand.IntN(len(candidates))]
	return Ref{Source: filepath.Join(dir, pick), Kind: KindLocalPhoto}, true
}

// FolderLabel extracts the parent folder name of a local media path, for
// display in review captions.
func FolderLabel(path string) string {
	dir := filepath.Base(filepath.Dir(path))
	if dir == "." || dir == "/" || dir == "" {
		return "local"
	}
	return dir
}
