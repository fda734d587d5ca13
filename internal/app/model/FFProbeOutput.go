package model

// FFProbeOutput is the part of `ffprobe -of json` output that is read.
type FFProbeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}
