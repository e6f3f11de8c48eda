// meta/meta.go
package meta

import "time"

// MAX_TURNS is the turn ceiling after which a game is aborted with an unknown winner.
const MAX_TURNS = 200

// MAX_ATTEMPTS bounds the proposals accepted from an agent per turn before the
// engine plays for it.
const MAX_ATTEMPTS = 3

// HINT_LIMIT is the number of top hints exposed to agents.
const HINT_LIMIT = 10

// CHECKERS_PER_SIDE is the number of checkers each player starts with.
const CHECKERS_PER_SIDE = 15

// MAX_CUBE_REROLLS bounds the re-rolls after cube decisions on a single turn.
const MAX_CUBE_REROLLS = 3

// SETTLE_DELAY is the pause between turns. The engine does not need it.
const SETTLE_DELAY = 0 * time.Second
