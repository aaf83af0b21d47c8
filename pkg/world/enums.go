package world

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownID = errors.New("unknown id")

type GameMode int

const (
	GameModeSurvival GameMode = iota
	GameModeCreative
	GameModeAdventure
	GameModeSpectator
)

var gameModeNames = []string{
	GameModeSurvival:  "SURVIVAL",
	GameModeCreative:  "CREATIVE",
	GameModeAdventure: "ADVENTURE",
	GameModeSpectator: "SPECTATOR",
}

func GameModeFromID(id int) (GameMode, error) {
	return fromID[GameMode]("game mode", gameModeNames, id)
}

// GameModeFromNullableID treats -1 as "no game mode", which is how the
// protocol encodes an absent previous game mode.
func GameModeFromNullableID(id int) (gm GameMode, ok bool, err error) {
	if id == -1 {
		return 0, false, nil
	}
	gm, err = GameModeFromID(id)
	if err != nil {
		return 0, false, err
	}
	return gm, true, nil
}

// GameModeByName looks up a game mode ignoring case.
func GameModeByName(name string) (GameMode, bool) {
	return byName[GameMode](gameModeNames, name)
}

func (gm GameMode) ID() int {
	return int(gm)
}

func (gm GameMode) String() string {
	return nameOf(gameModeNames, "GameMode", gm)
}

type Difficulty int

const (
	DifficultyPeaceful Difficulty = iota
	DifficultyEasy
	DifficultyNormal
	DifficultyHard
)

var difficultyNames = []string{
	DifficultyPeaceful: "PEACEFUL",
	DifficultyEasy:     "EASY",
	DifficultyNormal:   "NORMAL",
	DifficultyHard:     "HARD",
}

func DifficultyFromID(id int) (Difficulty, error) {
	return fromID[Difficulty]("difficulty", difficultyNames, id)
}

func DifficultyByName(name string) (Difficulty, bool) {
	return byName[Difficulty](difficultyNames, name)
}

func (d Difficulty) ID() int {
	return int(d)
}

func (d Difficulty) String() string {
	return nameOf(difficultyNames, "Difficulty", d)
}

type WorldType int

const (
	WorldTypeNormal WorldType = iota
	WorldTypeFlat
)

var worldTypeNames = []string{
	WorldTypeNormal: "NORMAL",
	WorldTypeFlat:   "FLAT",
}

var worldTypeVoidFog = []int{
	WorldTypeNormal: 63,
	WorldTypeFlat:   0,
}

func WorldTypeFromID(id int) (WorldType, error) {
	return fromID[WorldType]("world type", worldTypeNames, id)
}

func WorldTypeByName(name string) (WorldType, bool) {
	return byName[WorldType](worldTypeNames, name)
}

func (wt WorldType) ID() int {
	return int(wt)
}

// VoidFogLevel is the height below which the client renders void fog.
func (wt WorldType) VoidFogLevel() int {
	if wt < 0 || int(wt) >= len(worldTypeVoidFog) {
		return 0
	}
	return worldTypeVoidFog[wt]
}

func (wt WorldType) String() string {
	return nameOf(worldTypeNames, "WorldType", wt)
}

func fromID[T ~int](kind string, names []string, id int) (T, error) {
	if id < 0 || id >= len(names) {
		return 0, fmt.Errorf("%w: unsupported %s %d", ErrUnknownID, kind, id)
	}
	return T(id), nil
}

func byName[T ~int](names []string, name string) (T, bool) {
	for i, n := range names {
		if strings.EqualFold(n, name) {
			return T(i), true
		}
	}
	return 0, false
}

func nameOf[T ~int](names []string, typ string, v T) string {
	if v < 0 || int(v) >= len(names) {
		return fmt.Sprintf("%s(%d)", typ, int(v))
	}
	return names[v]
}
