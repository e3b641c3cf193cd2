package workout

// Step is the outcome of resolving a next/previous move
type Step struct {
	ExerciseID string
	Round      int
	Wrapped    bool // Moved past the last exercise; Round is currentRound+1 and may exceed the total
	NoOp       bool // Position does not change
}

func noOp(currentID string, currentRound int) Step {
	return Step{ExerciseID: currentID, Round: currentRound, NoOp: true}
}

// ResolveNext computes the position after currentID.
//
// When currentID is the last exercise the step wraps to the first exercise with
// Round = currentRound+1; the caller decides between a round increment and
// completion by comparing Round against totalRounds. A single-exercise list is
// always "at the last exercise". Unknown ids and empty lists resolve to a no-op.
func ResolveNext(exercises []Exercise, currentID string, currentRound, totalRounds int) Step {
	if len(exercises) == 0 {
		return noOp(currentID, currentRound)
	}
	idx := indexOf(exercises, currentID)
	if idx < 0 {
		return noOp(currentID, currentRound)
	}
	if idx == len(exercises)-1 {
		return Step{ExerciseID: exercises[0].ID, Round: currentRound + 1, Wrapped: true}
	}
	return Step{ExerciseID: exercises[idx+1].ID, Round: currentRound}
}

// ResolvePrevious computes the position before currentID. The absolute start
// (first exercise of round 1) and single-exercise lists are no-ops; the first
// exercise of a later round wraps to the last exercise of the previous round.
func ResolvePrevious(exercises []Exercise, currentID string, currentRound int) Step {
	if len(exercises) <= 1 {
		return noOp(currentID, currentRound)
	}
	idx := indexOf(exercises, currentID)
	if idx < 0 {
		return noOp(currentID, currentRound)
	}
	if idx == 0 {
		if currentRound <= 1 {
			return noOp(currentID, currentRound)
		}
		return Step{ExerciseID: exercises[len(exercises)-1].ID, Round: currentRound - 1, Wrapped: true}
	}
	return Step{ExerciseID: exercises[idx-1].ID, Round: currentRound}
}

func indexOf(exercises []Exercise, id string) int {
	for i, e := range exercises {
		if e.ID == id {
			return i
		}
	}
	return -1
}
