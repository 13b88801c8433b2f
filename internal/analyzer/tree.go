package analyzer

import "github.com/hirescope/hirescope/internal/models"

// Flatten turns a nested directory listing into an ordered path list:
// depth-first, directories before their descendants, directories tagged with
// a trailing slash. A nil or empty listing yields an empty result. The input
// is assumed to be a finite tree as returned by the data source.
func Flatten(entries []models.DirectoryEntry) []string {
	return flatten(entries, "")
}

func flatten(entries []models.DirectoryEntry, prefix string) []string {
	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		path := prefix + entry.Name
		if entry.IsDir() {
			paths = append(paths, path+"/")
			paths = append(paths, flatten(entry.Entries, path+"/")...)
		} else {
			paths = append(paths, path)
		}
	}
	return paths
}
