package analysis

import (
	"path"
	"strings"

	"github.com/hyeonsu-an/smartcoach/internal/llm"
)

// Evidence is the primary input to an analysis call: a text transcript or a
// binary audio recording with its media type. Exactly one is used; audio
// wins when both are somehow present, matching the upload-first workflow.
type Evidence struct {
	Script   string
	Audio    []byte
	MIMEType string
}

// MissingEvidenceError reports an analysis call with neither transcript nor
// audio.
type MissingEvidenceError struct{}

func (e *MissingEvidenceError) Error() string {
	return "no evidence supplied: provide a transcript or an audio recording"
}

// Empty reports whether the evidence carries no usable input.
func (e Evidence) Empty() bool {
	return strings.TrimSpace(e.Script) == "" && len(e.Audio) == 0
}

// part converts the evidence into a prompt part, labeled so the model knows
// which section of the prompt is the consultation itself.
func (e Evidence) part(label string) llm.Part {
	if len(e.Audio) > 0 {
		mimeType := e.MIMEType
		if mimeType == "" {
			mimeType = "audio/mp3"
		}
		return llm.BlobPart(e.Audio, mimeType)
	}
	return llm.TextPart("[" + label + "]\n" + e.Script)
}

// AudioMIMEType guesses the media type for an uploaded recording from its
// file name. Gemini treats m4a as an MP4 container.
func AudioMIMEType(filename string) string {
	switch strings.ToLower(path.Ext(filename)) {
	case ".wav":
		return "audio/wav"
	case ".m4a":
		return "audio/mp4"
	default:
		return "audio/mp3"
	}
}
