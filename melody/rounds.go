package melody

// Tone frequencies in Hz for the melodies the box plays.
const (
	NoteC4  = 262
	NoteD4  = 294
	NoteE4  = 330
	NoteF4  = 349
	NoteG4  = 392
	NoteA4  = 440
	NoteAb4 = 466
	NoteB4  = 494
	NoteC5  = 523
	NoteD5  = 587
	NoteE5  = 659
	NoteF5  = 698
	NoteG5  = 784
	NoteA5  = 880
	NoteC6  = 1047
)

// A Round is one melody the player has to reproduce. Sequence holds the
// lamp/button index for every position. The required prefix starts at
// Baseline symbols and grows with each correct reproduction; once it reaches
// Checkpoint it jumps straight to the full length, giving the two-phrase
// difficulty curve.
//
// Notes maps a button to its tone for positions before Checkpoint;
// NotesTail applies from Checkpoint onward, so the same button sounds
// different in the second phrase.
type Round struct {
	Title      string
	Sequence   []int
	Baseline   int
	Checkpoint int
	Notes      [NumSymbols]int
	NotesTail  [NumSymbols]int
}

// FullLength returns the number of symbols in the round.
func (r Round) FullLength() int {
	return len(r.Sequence)
}

// NoteFor returns the tone for pressing button sym at position pos.
func (r Round) NoteFor(sym, pos int) int {
	if pos >= r.Checkpoint {
		return r.NotesTail[sym]
	}

	return r.Notes[sym]
}

// DefaultRounds returns the three Sinterklaas songs the box ships with.
func DefaultRounds() []Round {
	return []Round{
		{
			Title:      "Zie ginds komt de stoomboot",
			Sequence:   []int{0, 1, 1, 2, 3, 3, 0, 1, 1, 3, 2},
			Baseline:   6,
			Checkpoint: 6,
			Notes:      [NumSymbols]int{NoteC4, NoteF4, NoteA4, NoteG4},
			NotesTail:  [NumSymbols]int{NoteAb4, NoteE4, NoteF4, NoteG4},
		},
		{
			Title:      "Sinterklaas kapoentje",
			Sequence:   []int{0, 0, 1, 1, 0, 2, 1, 1, 1, 0, 1, 1},
			Baseline:   6,
			Checkpoint: 6,
			Notes:      [NumSymbols]int{NoteG4, NoteA4, NoteE4, NoteC5},
			NotesTail:  [NumSymbols]int{NoteD4, NoteF4, NoteE4, NoteC5},
		},
		{
			Title:      "O, kom er eens kijken",
			Sequence:   []int{0, 0, 1, 1, 1, 2, 3, 1, 2, 2, 2, 2, 3, 2, 1},
			Baseline:   8,
			Checkpoint: 8,
			Notes:      [NumSymbols]int{NoteD4, NoteG4, NoteA4, NoteB4},
			NotesTail:  [NumSymbols]int{NoteD4, NoteG4, NoteA4, NoteB4},
		},
	}
}
