package profile

import (
	"fmt"
	"strings"
)

type SkinModel int

const (
	// SkinModelClassic is the default model with four pixel wide arms.
	SkinModelClassic SkinModel = iota
	// SkinModelSlim is the "Alex" model with three pixel wide arms.
	SkinModelSlim
)

var skinModelNames = [...]string{
	SkinModelClassic: "CLASSIC",
	SkinModelSlim:    "SLIM",
}

// SkinModelByName looks up a skin model ignoring case.
func SkinModelByName(name string) (SkinModel, bool) {
	for i, n := range skinModelNames {
		if strings.EqualFold(n, name) {
			return SkinModel(i), true
		}
	}
	return 0, false
}

func SkinModelFromID(id int) (SkinModel, error) {
	if id < 0 || id >= len(skinModelNames) {
		return 0, fmt.Errorf("%w: unsupported skin model %d", ErrInvalidArgument, id)
	}
	return SkinModel(id), nil
}

func (m SkinModel) ID() int {
	return int(m)
}

func (m SkinModel) String() string {
	if m < 0 || int(m) >= len(skinModelNames) {
		return fmt.Sprintf("SkinModel(%d)", int(m))
	}
	return skinModelNames[m]
}
