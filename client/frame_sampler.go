package client

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"
)

// FFmpegFrameSampler grabs a single JPEG frame from a video file.
type FFmpegFrameSampler struct {
	binary string
}

func NewFFmpegFrameSampler(binary string) *FFmpegFrameSampler {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &FFmpegFrameSampler{binary: binary}
}

// SampleFrame returns the frame at offset encoded as JPEG. A video shorter than offset
// produces no output and is reported as an error.
func (s *FFmpegFrameSampler) SampleFrame(ctx context.Context, videoPath string, offset time.Duration) ([]byte, error) {
	cmd := exec.CommandContext(ctx, s.binary,
		"-hide_banner", "-loglevel", "error",
		"-ss", fmt.Sprintf("%.3f", offset.Seconds()),
		"-i", videoPath,
		"-frames:v", "1",
		"-f", "image2",
		"-c:v", "mjpeg",
		"pipe:1",
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg failed: %w (%s)", err, stderr.String())
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("no frame at %s in %s", offset, videoPath)
	}
	return stdout.Bytes(), nil
}
