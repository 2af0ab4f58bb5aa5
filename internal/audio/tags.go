package audio

import (
	"os"

	"github.com/dhowden/tag"
)

// Tags is the descriptive metadata of an audio file.
type Tags struct {
	Title  string
	Artist string
	Format string
}

// ReadTags returns the embedded metadata of the file at path. The boolean is
// false when the file carries no readable tags.
func ReadTags(path string) (Tags, bool) {
	f, err := os.Open(path)
	if err != nil {
		return Tags{}, false
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return Tags{}, false
	}
	return Tags{
		Title:  m.Title(),
		Artist: m.Artist(),
		Format: string(m.Format()),
	}, true
}
