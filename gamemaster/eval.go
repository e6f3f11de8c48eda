package gamemaster

import (
	"bgarena/game"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Features of a position seen from the side that just moved. The weights
// below are hand tuned; they only need to rank plays sensibly.
const (
	featureRace = iota
	featureBorneOff
	featureOpponentBar
	featureBlots
	featureHomePoints
	featurePrime
	featureAnchors
	featureBackCheckers
	numFeatures
)

var defaultWeights = []float64{
	featureRace:         1.2,
	featureBorneOff:     0.9,
	featureOpponentBar:  0.6,
	featureBlots:        -0.35,
	featureHomePoints:   0.25,
	featurePrime:        0.2,
	featureAnchors:      0.15,
	featureBackCheckers: -0.1,
}

// evaluate scores the position after a play for the side that made it.
// The result lies in (-1, 1).
func evaluate(mover, other game.Side, weights []float64) float64 {
	features := make([]float64, numFeatures)
	features[featureRace] = float64(other.Pips()-mover.Pips()) / 100
	features[featureBorneOff] = float64(mover.Off()) / game.CheckersPerSide
	features[featureOpponentBar] = float64(other.Bar())
	features[featureBlots] = float64(exposedBlots(mover, other))
	features[featureHomePoints] = float64(madePoints(mover, 0, game.HomePoints-1))
	features[featurePrime] = float64(longestPrime(mover))
	features[featureAnchors] = float64(madePoints(mover, game.NumPoints-game.HomePoints, game.NumPoints-1))
	features[featureBackCheckers] = float64(mover.InZone(game.NumPoints-game.HomePoints, game.BarIndex)) / 2
	return math.Tanh(floats.Dot(features, weights))
}

// exposedBlots counts single checkers the opponent could still hit.
func exposedBlots(mover, other game.Side) int {
	// mover index of the furthest opposing checker; none is safe from the bar
	furthest := -1
	for i := game.NumPoints - 1; i >= 0 && other.Bar() == 0; i-- {
		if other[i] > 0 {
			furthest = opposite(i)
			break
		}
	}
	blots := 0
	for i := 0; i < game.NumPoints; i++ {
		if mover[i] == 1 && i >= furthest {
			blots++
		}
	}
	return blots
}

func madePoints(side game.Side, lo, hi int) int {
	made := 0
	for i := lo; i <= hi; i++ {
		if side[i] >= 2 {
			made++
		}
	}
	return made
}

func longestPrime(side game.Side) int {
	best, run := 0, 0
	for i := 0; i < game.NumPoints; i++ {
		if side[i] >= 2 {
			run++
			best = max(best, run)
		} else {
			run = 0
		}
	}
	return best
}
