package audio

import (
	"bytes"
	"encoding/binary"
	"math"
	"strings"

	"github.com/tidwall/gjson"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

type streamInfo struct {
	SampleRate int
	Channels   int
	Codec      string
}

func probeAudioStream(path string) (*streamInfo, error) {
	out, err := ffmpeg.Probe(path)
	if err != nil {
		return nil, decodeErr("ffprobe: %v", err)
	}
	return parseProbe(out)
}

func parseProbe(probeJSON string) (*streamInfo, error) {
	stream := gjson.Get(probeJSON, `streams.#(codec_type=="audio")`)
	if !stream.Exists() {
		return nil, decodeErr("no audio stream")
	}

	info := &streamInfo{
		SampleRate: int(stream.Get("sample_rate").Int()),
		Channels:   int(stream.Get("channels").Int()),
		Codec:      stream.Get("codec_name").String(),
	}
	if info.SampleRate <= 0 || info.Channels <= 0 {
		return nil, decodeErr("audio stream reports %d Hz, %d channels", info.SampleRate, info.Channels)
	}
	return info, nil
}

// decodeFFmpeg handles every container the in-process decoders do not. The
// stream keeps its native rate and channel layout; normalization happens in
// Go like it does for WAV and MP3.
func decodeFFmpeg(path string) (*Clip, error) {
	info, err := probeAudioStream(path)
	if err != nil {
		return nil, err
	}

	var stdout, stderr bytes.Buffer
	err = ffmpeg.Input(path).
		Output("pipe:", ffmpeg.KwArgs{
			"format": "f32le",
			"acodec": "pcm_f32le",
		}).
		WithOutput(&stdout).
		WithErrorOutput(&stderr).
		Run()
	if err != nil {
		return nil, decodeErr("ffmpeg %s: %v: %s", info.Codec, err, strings.TrimSpace(stderr.String()))
	}

	return &Clip{
		Channels:   deinterleave(float32le(stdout.Bytes()), info.Channels),
		SampleRate: info.SampleRate,
	}, nil
}

func float32le(raw []byte) []float32 {
	n := len(raw) / 4
	samples := make([]float32, n)
	for i := 0; i < n; i++ {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
	}
	return samples
}
