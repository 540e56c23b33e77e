package score

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/exp/constraints"
)

var noteNames = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// semitone offsets from C
var letterOffsets = map[byte]int{
	'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11,
}

// NoteName spells a MIDI pitch with sharps, C4 = 60
func NoteName(midi int) string {
	midi = Clamp(midi, MinPitch, MaxPitch)
	octave := midi/12 - 1
	return fmt.Sprintf("%s%d", noteNames[midi%12], octave)
}

// ParseNoteName converts names like "A0", "C#4", "Eb-1" to a MIDI pitch
func ParseNoteName(name string) (int, error) {
	name = strings.TrimSpace(name)
	if len(name) < 2 {
		return 0, fmt.Errorf("note name too short: %q", name)
	}

	semitone, ok := letterOffsets[strings.ToUpper(name[:1])[0]]
	if !ok {
		return 0, fmt.Errorf("invalid note letter in %q", name)
	}

	idx := 1
	switch name[idx] {
	case '#':
		semitone++
		idx++
	case 'b':
		semitone--
		idx++
	}

	if idx >= len(name) {
		return 0, fmt.Errorf("missing octave in %q", name)
	}
	octave, err := strconv.Atoi(name[idx:])
	if err != nil {
		return 0, fmt.Errorf("invalid octave in %q: %w", name, err)
	}

	midi := (octave+1)*12 + semitone
	if midi < MinPitch || midi > MaxPitch {
		return 0, fmt.Errorf("note %q is outside the MIDI range", name)
	}
	return midi, nil
}

// Clamp limits v to [lo, hi]
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
