package melody

import "time"

// A cueStep is one frame of a light-and-sound effect. A zero frequency means
// silence. Cues play across ticks so input polling never stalls.
type cueStep struct {
	freq  int
	lamps bool
	dur   time.Duration
}

func startCue() []cueStep {
	return []cueStep{
		{NoteE5, false, 80 * time.Millisecond},
		{NoteG5, false, 80 * time.Millisecond},
		{NoteC6, false, 120 * time.Millisecond},
	}
}

func stepSuccessCue() []cueStep {
	return []cueStep{
		{NoteC5, false, 100 * time.Millisecond},
		{NoteE5, false, 100 * time.Millisecond},
		{NoteG5, false, 100 * time.Millisecond},
	}
}

func roundSuccessCue() []cueStep {
	cue := make([]cueStep, 0, 12)
	for i := 0; i < 3; i++ {
		cue = append(cue,
			cueStep{NoteC5, true, 100 * time.Millisecond},
			cueStep{NoteE5, true, 100 * time.Millisecond},
			cueStep{NoteG5, true, 100 * time.Millisecond},
			cueStep{0, false, 200 * time.Millisecond},
		)
	}

	return cue
}

func failureCue() []cueStep {
	return []cueStep{
		{200, true, 300 * time.Millisecond},
		{150, true, 300 * time.Millisecond},
	}
}
