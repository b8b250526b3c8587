package game

import "math/rand/v2"

// Shuffler permutes n elements in place via swap.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// randShuffler adapts a *rand.Rand (Fisher–Yates) to Shuffler.
type randShuffler struct{ r *rand.Rand }

func (s randShuffler) Shuffle(n int, swap func(i, j int)) { s.r.Shuffle(n, swap) }

// RandShuffler returns a uniformly random Shuffler seeded from the runtime's
// entropy source.
func RandShuffler() Shuffler {
	return randShuffler{r: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

// SeededShuffler returns a Shuffler whose first permutation of any given
// length depends only on seed.
func SeededShuffler(seed uint64) Shuffler {
	return &seeded{seed: seed}
}

// seeded restarts its generator for every deck so that all decks dealt from
// the same seed share one layout.
type seeded struct{ seed uint64 }

func (s *seeded) Shuffle(n int, swap func(i, j int)) {
	rand.New(rand.NewPCG(s.seed, s.seed^0x9e3779b97f4a7c15)).Shuffle(n, swap)
}

// NewDeck duplicates symbols into pairs and shuffles the result.
// Card IDs are assigned after shuffling, so an ID is the card's board slot.
func NewDeck(symbols []Symbol, sh Shuffler) []*Card {
	faces := make([]Symbol, 0, 2*len(symbols))
	faces = append(faces, symbols...)
	faces = append(faces, symbols...)
	sh.Shuffle(len(faces), func(i, j int) { faces[i], faces[j] = faces[j], faces[i] })

	deck := make([]*Card, len(faces))
	for i, s := range faces {
		deck[i] = &Card{ID: CardID(i), Symbol: s}
	}
	return deck
}
