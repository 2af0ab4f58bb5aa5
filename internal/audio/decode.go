package audio

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/h2non/filetype"
)

// sniffLen covers every matcher filetype ships with.
const sniffLen = 262

// Load decodes the file at path and normalizes it to a Waveform at
// sampleRate.
func Load(path string, sampleRate int) (*Waveform, error) {
	clip, err := Decode(path)
	if err != nil {
		return nil, err
	}
	return Normalize(clip, sampleRate)
}

// Decode reads the file at path into a Clip using the codec its content
// indicates.
func Decode(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("audio file %s: %w", path, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if n == 0 {
		return nil, decodeErr("%s is empty", path)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	kind, _ := filetype.Match(head[:n])

	var clip *Clip
	switch kind.Extension {
	case "wav":
		clip, err = decodeWAV(f)
	case "mp3":
		clip, err = decodeMP3(f)
	default:
		clip, err = decodeFFmpeg(path)
	}
	if err != nil {
		return nil, fmt.Errorf("audio file %s: %w", path, err)
	}
	if clip.Frames() == 0 {
		return nil, fmt.Errorf("audio file %s: %w", path, decodeErr("no samples"))
	}
	return clip, nil
}
