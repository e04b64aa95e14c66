package prefs

import (
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/storage"
)

// KeyLastDir is the Fyne preference holding the directory of the last file dialog.
const KeyLastDir = "lastDirectory"

// LastDir returns the last used directory as a ListableURI, or nil.
func LastDir(p fyne.Preferences) fyne.ListableURI {
	path := p.String(KeyLastDir)
	if path == "" {
		return nil
	}
	listable, err := storage.ListerForURI(storage.NewFileURI(path))
	if err != nil {
		return nil
	}
	return listable
}

// SaveLastDir remembers the directory of the given file path.
func SaveLastDir(p fyne.Preferences, filePath string) {
	p.SetString(KeyLastDir, filepath.Dir(filePath))
}
