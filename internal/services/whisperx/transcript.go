package whisperx

import (
	"encoding/json"
	"fmt"
	"strings"

	"catalog/internal/lifecycle"
	"catalog/internal/services"
)

type resultDocument struct {
	Segments []segment `json:"segments"`
	Language string    `json:"language"`
}

type segment struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
	Speaker string  `json:"speaker"`
}

const (
	// pauseSensitivity places the paragraph-break threshold between the
	// shortest and longest inter-segment pause.
	pauseSensitivity = 0.5
	// timestampInterval is the minimum gap in seconds between **MM:SS**
	// markers in the formatted transcript.
	timestampInterval = 80.0
)

// ParseResult converts a WhisperX JSON document into raw and formatted
// transcripts. The raw form is the segment text joined with spaces; the
// formatted form adds periodic timestamps, speaker labels relabeled
// S1, S2, ... in order of first appearance, and paragraph breaks at
// long pauses or speaker changes.
func ParseResult(data []byte) (lifecycle.Transcript, error) {
	var empty lifecycle.Transcript

	var doc resultDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return empty, services.Wrap(services.ErrPermanent, "whisperx", "parse", "decode result document", err)
	}
	if len(doc.Segments) == 0 {
		return empty, services.Wrap(services.ErrPermanent, "whisperx", "parse", "result has no segments", nil)
	}

	segments := make([]segment, 0, len(doc.Segments))
	var rawParts []string
	for _, seg := range doc.Segments {
		seg.Text = strings.TrimSpace(seg.Text)
		if seg.Text == "" {
			continue
		}
		segments = append(segments, seg)
		rawParts = append(rawParts, seg.Text)
	}
	if len(segments) == 0 {
		return empty, services.Wrap(services.ErrPermanent, "whisperx", "parse", "result segments are all empty", nil)
	}

	return lifecycle.Transcript{
		Raw:       strings.Join(rawParts, " "),
		Formatted: formatTranscript(segments),
	}, nil
}

func formatTranscript(segments []segment) string {
	threshold := pauseThreshold(segments)
	long := segments[len(segments)-1].End >= 3600

	labels := make(map[string]string)
	var b strings.Builder
	var lastStamp float64
	var currentSpeaker string

	for i, seg := range segments {
		if seg.Start-lastStamp >= timestampInterval {
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n\n") {
				b.WriteString("\n\n")
			}
			b.WriteString("**" + formatTimestamp(seg.Start, long) + "**\n\n")
			lastStamp = seg.Start
		}

		if seg.Speaker != "" && seg.Speaker != currentSpeaker {
			label, ok := labels[seg.Speaker]
			if !ok {
				label = fmt.Sprintf("S%d", len(labels)+1)
				labels[seg.Speaker] = label
			}
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n\n") {
				b.WriteString("\n\n")
			}
			b.WriteString("_" + label + ":_ ")
		}
		currentSpeaker = seg.Speaker

		b.WriteString(seg.Text)

		if i == len(segments)-1 {
			continue
		}
		pause := segments[i+1].Start - seg.End
		if pause < threshold && segments[i+1].Speaker == currentSpeaker {
			b.WriteString(" ")
		} else {
			b.WriteString("\n\n")
		}
	}
	return strings.TrimSpace(b.String())
}

// pauseThreshold picks the break point between the shortest and longest
// pause so the paragraphing adapts to each recording's rhythm.
func pauseThreshold(segments []segment) float64 {
	if len(segments) < 2 {
		return 0
	}
	lo := segments[1].Start - segments[0].End
	hi := lo
	for i := 2; i < len(segments); i++ {
		pause := segments[i].Start - segments[i-1].End
		if pause < lo {
			lo = pause
		}
		if pause > hi {
			hi = pause
		}
	}
	return lo + (hi-lo)*pauseSensitivity
}

func formatTimestamp(seconds float64, long bool) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	if long {
		return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
	}
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
