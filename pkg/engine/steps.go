package engine

import (
	"holdemtable-server/pkg/game"
)

// StepType identifies what a step does when it executes. The set is closed;
// the orchestrator dispatches on it.
type StepType string

const (
	StepPostSmallBlind  StepType = "post_small_blind"
	StepPostBigBlind    StepType = "post_big_blind"
	StepDealHoleCards   StepType = "deal_hole_cards"
	StepBettingRound    StepType = "betting_round"
	StepDealFlop        StepType = "deal_flop"
	StepDealTurn        StepType = "deal_turn"
	StepDealRiver       StepType = "deal_river"
	StepDetermineWinner StepType = "determine_winner"
	StepReset           StepType = "reset"
)

// StepDef is the static definition of one step: what it does, which
// requirements gate advancement past it, and how long clients display its
// announcement before the hand may progress.
type StepDef struct {
	Type         StepType
	Requirements []game.RequirementType
	Display      bool
}

// stageSteps is the full static progression of a hand. Stage order is
// preflop, flop, turn, river, showdown, end; each stage's steps run in
// slice order.
var stageSteps = map[game.Stage][]StepDef{
	game.StagePreflop: {
		{Type: StepPostSmallBlind, Requirements: []game.RequirementType{game.RequirementBlindsPosted}},
		{Type: StepPostBigBlind, Requirements: []game.RequirementType{game.RequirementBlindsPosted}},
		{Type: StepDealHoleCards, Requirements: []game.RequirementType{game.RequirementCardsDealt, game.RequirementNotificationComplete}, Display: true},
		{Type: StepBettingRound, Requirements: []game.RequirementType{game.RequirementAllPlayersActed}},
	},
	game.StageFlop: {
		{Type: StepDealFlop, Requirements: []game.RequirementType{game.RequirementCardsDealt, game.RequirementNotificationComplete}, Display: true},
		{Type: StepBettingRound, Requirements: []game.RequirementType{game.RequirementAllPlayersActed}},
	},
	game.StageTurn: {
		{Type: StepDealTurn, Requirements: []game.RequirementType{game.RequirementCardsDealt, game.RequirementNotificationComplete}, Display: true},
		{Type: StepBettingRound, Requirements: []game.RequirementType{game.RequirementAllPlayersActed}},
	},
	game.StageRiver: {
		{Type: StepDealRiver, Requirements: []game.RequirementType{game.RequirementCardsDealt, game.RequirementNotificationComplete}, Display: true},
		{Type: StepBettingRound, Requirements: []game.RequirementType{game.RequirementAllPlayersActed}},
	},
	game.StageShowdown: {
		{Type: StepDetermineWinner, Requirements: []game.RequirementType{game.RequirementWinnerDetermined, game.RequirementNotificationComplete}, Display: true},
	},
	game.StageEnd: {
		{Type: StepReset, Requirements: []game.RequirementType{game.RequirementGameReset}},
	},
}

var stageOrder = []game.Stage{
	game.StagePreflop,
	game.StageFlop,
	game.StageTurn,
	game.StageRiver,
	game.StageShowdown,
	game.StageEnd,
}

// stepDefinition returns the definition for a stage/step pair
func stepDefinition(stage game.Stage, step int) (StepDef, bool) {
	steps, ok := stageSteps[stage]
	if !ok || step < 0 || step >= len(steps) {
		return StepDef{}, false
	}
	return steps[step], true
}

// nextStep returns the stage/step pair following the given one. ok is false
// at the end of the progression.
func nextStep(stage game.Stage, step int) (game.Stage, int, bool) {
	steps, found := stageSteps[stage]
	if !found {
		return "", 0, false
	}

	if step+1 < len(steps) {
		return stage, step + 1, true
	}

	for i, s := range stageOrder {
		if s == stage && i+1 < len(stageOrder) {
			return stageOrder[i+1], 0, true
		}
	}

	return "", 0, false
}

// requirementsSatisfied reports whether every requirement the step names has
// been marked complete
func requirementsSatisfied(def StepDef, step *game.CurrentStep) bool {
	for _, req := range def.Requirements {
		if !step.IsComplete(req) {
			return false
		}
	}
	return true
}
