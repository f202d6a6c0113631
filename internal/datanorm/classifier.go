package datanorm

import (
	"strings"
)

// Classifier determines a file's source type from its name and header row.
type Classifier struct{}

func NewClassifier() *Classifier {
	return &Classifier{}
}

var kixieKeywords = []string{"kixie", "call_history", "call history", "call-history"}
var telesignWithoutKeywords = []string{"without_live", "without live", "without-live", "no_live", "nolive"}
var telesignKeywords = []string{"telesign", "with_live", "with live", "with-live", "validation"}
var powerlistKeywords = []string{"powerlist", "contacts"}

// Classify returns the file type implied by key (an object key or upload
// filename), falling back to distinctive headers. ok is false when nothing
// matched.
func (c *Classifier) Classify(key string, headerRow []string) (FileType, bool) {
	keyLower := strings.ToLower(key)

	if containsAny(keyLower, kixieKeywords) {
		return FileKixie, true
	}
	if containsAny(keyLower, telesignWithoutKeywords) {
		return FileTelesignWithout, true
	}
	if containsAny(keyLower, telesignKeywords) {
		return FileTelesignWith, true
	}
	if containsAny(keyLower, powerlistKeywords) {
		return FilePowerlist, true
	}

	mk := MapColumns(headerRow, FileKixie)
	if len(mk.Missing(FileKixie)) == 0 {
		return FileKixie, true
	}
	mp := MapColumns(headerRow, FilePowerlist)
	if len(mp.Missing(FilePowerlist)) == 0 {
		return FilePowerlist, true
	}
	// A bare validation export says nothing about live checks; reachability
	// then comes from the row itself or defaults to the with-live tag.
	mt := MapColumns(headerRow, FileTelesignWith)
	if len(mt.Missing(FileTelesignWith)) == 0 {
		return FileTelesignWith, true
	}
	return "", false
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
