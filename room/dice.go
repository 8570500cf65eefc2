// room/dice.go
package room

import (
	"math/rand"
	"sync"
	"time"
)

// Roller draws three symbols uniformly and independently, with replacement.
type Roller interface {
	Roll() [DiceCount]Symbol
}

type rngRoller struct {
	mutex sync.Mutex
	rnd   *rand.Rand
}

// NewRoller creates a Roller. A zero seed means seed from the clock; tests
// pass a fixed seed for reproducible draws.
func NewRoller(seed int64) Roller {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &rngRoller{rnd: rand.New(rand.NewSource(seed))}
}

func (r *rngRoller) Roll() [DiceCount]Symbol {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var dice [DiceCount]Symbol
	for i := range dice {
		dice[i] = Symbol(r.rnd.Intn(NumSymbols))
	}
	return dice
}
