package video

import (
	"encoding/json"
	"fmt"
	"strconv"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Info is what ffprobe reports about the first video stream of a file.
type Info struct {
	Codec    string
	Width    int
	Height   int
	Frames   int
	Duration float64
	PixFmt   string
}

type probeOutput struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		CodecName string `json:"codec_name"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
		NbFrames  string `json:"nb_frames"`
		NbRead    string `json:"nb_read_frames"`
		Duration  string `json:"duration"`
		PixFmt    string `json:"pix_fmt"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Inspect runs ffprobe on path.
func Inspect(path string) (Info, error) {
	raw, err := ffmpeg.Probe(path, ffmpeg.KwArgs{"count_frames": ""})
	if err != nil {
		return Info{}, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	return parseProbe([]byte(raw))
}

func parseProbe(raw []byte) (Info, error) {
	var out probeOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return Info{}, fmt.Errorf("parse ffprobe output: %w", err)
	}

	for _, s := range out.Streams {
		if s.CodecType != "video" {
			continue
		}
		info := Info{
			Codec:  s.CodecName,
			Width:  s.Width,
			Height: s.Height,
			PixFmt: s.PixFmt,
		}
		// nb_frames пуст для webm, count_frames даёт nb_read_frames
		if n, err := strconv.Atoi(s.NbRead); err == nil {
			info.Frames = n
		} else {
			info.Frames, _ = strconv.Atoi(s.NbFrames)
		}

		dur := s.Duration
		if dur == "" {
			dur = out.Format.Duration
		}
		info.Duration, _ = strconv.ParseFloat(dur, 64)
		return info, nil
	}
	return Info{}, fmt.Errorf("no video stream")
}
