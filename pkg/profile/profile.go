// Package profile models Mojang game profiles and the textures property
// attached to them.
package profile

import (
	"encoding/json"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/haveachin/barebones/pkg/mcuuid"
)

// GameProfile is the identity Mojang issues for a player. It is immutable;
// every method that changes something returns a new GameProfile.
type GameProfile struct {
	id         uuid.UUID
	name       string
	properties []Property
}

// New creates a profile. The properties are copied so later changes to the
// caller's slice are not observed.
func New(id uuid.UUID, name string, properties ...Property) (GameProfile, error) {
	if id == uuid.Nil {
		return GameProfile{}, fmt.Errorf("%w: profile uuid is nil", ErrInvalidArgument)
	}
	if name == "" {
		return GameProfile{}, fmt.Errorf("%w: profile name is empty", ErrInvalidArgument)
	}

	return GameProfile{
		id:         id,
		name:       name,
		properties: clone(properties),
	}, nil
}

// Offline returns the profile the vanilla server uses for username when
// online mode is disabled.
func Offline(username string) (GameProfile, error) {
	return New(mcuuid.Offline(username), username)
}

// WithTextures returns a profile whose only property is the textures
// property of t.
func WithTextures(id uuid.UUID, name string, t PlayerTextures) (GameProfile, error) {
	return New(id, name, t.AsProperty())
}

func (g GameProfile) UUID() uuid.UUID {
	return g.id
}

func (g GameProfile) Name() string {
	return g.name
}

// Properties returns a copy of the profile's properties in insertion order.
func (g GameProfile) Properties() []Property {
	return clone(g.properties)
}

func (g GameProfile) WithUUID(id uuid.UUID) (GameProfile, error) {
	return New(id, g.name, g.properties...)
}

func (g GameProfile) WithName(name string) (GameProfile, error) {
	return New(g.id, name, g.properties...)
}

func (g GameProfile) WithProperties(properties ...Property) GameProfile {
	g.properties = clone(properties)
	return g
}

func (g GameProfile) AddProperty(p Property) GameProfile {
	return g.AddProperties(p)
}

// AddProperties appends ps after the existing properties.
func (g GameProfile) AddProperties(ps ...Property) GameProfile {
	properties := make([]Property, 0, len(g.properties)+len(ps))
	properties = append(properties, g.properties...)
	properties = append(properties, ps...)
	g.properties = properties
	return g
}

// Property returns the first property called name.
func (g GameProfile) Property(name string) (Property, bool) {
	for _, p := range g.properties {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

// RemoveProperty drops every property called name.
func (g GameProfile) RemoveProperty(name string) GameProfile {
	properties := make([]Property, 0, len(g.properties))
	for _, p := range g.properties {
		if p.Name != name {
			properties = append(properties, p)
		}
	}
	g.properties = properties
	return g
}

// Equal reports whether both profiles carry the same identity and the same
// properties in the same order.
func (g GameProfile) Equal(other GameProfile) bool {
	if g.id != other.id || g.name != other.name || len(g.properties) != len(other.properties) {
		return false
	}
	for i := range g.properties {
		if g.properties[i] != other.properties[i] {
			return false
		}
	}
	return true
}

func (g GameProfile) String() string {
	return fmt.Sprintf("GameProfile{Id:%s,Name:%s,Properties:%s}",
		g.id, g.name, g.properties)
}

type profileJSON struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Properties []Property `json:"properties"`
}

// MarshalJSON encodes the profile in the shape Mojang's session server
// uses, with a hyphenless id.
func (g GameProfile) MarshalJSON() ([]byte, error) {
	properties := g.properties
	if properties == nil {
		properties = []Property{}
	}

	return json.Marshal(profileJSON{
		ID:         mcuuid.Undashed(g.id),
		Name:       g.name,
		Properties: properties,
	})
}

// UnmarshalJSON decodes the session server's profile shape. Keys are case
// sensitive and "properties" must be present, possibly empty. Properties
// without a signature become unsigned properties.
func (g *GameProfile) UnmarshalJSON(data []byte) error {
	obj, err := decodeObject(data)
	if err != nil {
		return fmt.Errorf("%w: profile: %v", ErrInvalidArgument, err)
	}

	rawID, err := obj.string("id")
	if err != nil {
		return fmt.Errorf("%w: profile: %v", ErrInvalidArgument, err)
	}
	id, ok := mcuuid.Parse(rawID)
	if !ok {
		return fmt.Errorf("%w: malformed profile id %q", ErrInvalidArgument, rawID)
	}

	name, err := obj.string("name")
	if err != nil {
		return fmt.Errorf("%w: profile: %v", ErrInvalidArgument, err)
	}

	if !obj.has("properties") {
		return fmt.Errorf("%w: profile has no properties", ErrInvalidArgument)
	}
	var rawProperties []json.RawMessage
	if err := json.Unmarshal(obj["properties"], &rawProperties); err != nil {
		return fmt.Errorf("%w: profile properties: %v", ErrInvalidArgument, err)
	}

	properties := make([]Property, 0, len(rawProperties))
	for _, raw := range rawProperties {
		property, err := decodeProperty(raw)
		if err != nil {
			return err
		}
		properties = append(properties, property)
	}

	profile, err := New(id, name, properties...)
	if err != nil {
		return err
	}

	*g = profile
	return nil
}

func decodeProperty(raw json.RawMessage) (Property, error) {
	obj, err := decodeObject(raw)
	if err != nil {
		return Property{}, fmt.Errorf("%w: property: %v", ErrInvalidArgument, err)
	}

	name, err := obj.string("name")
	if err != nil {
		return Property{}, fmt.Errorf("%w: property: %v", ErrInvalidArgument, err)
	}
	value, err := obj.string("value")
	if err != nil {
		return Property{}, fmt.Errorf("%w: property: %v", ErrInvalidArgument, err)
	}
	signature, err := obj.string("signature")
	if err != nil {
		return Property{}, fmt.Errorf("%w: property: %v", ErrInvalidArgument, err)
	}

	return NewProperty(name, value, signature)
}

func clone(properties []Property) []Property {
	if len(properties) == 0 {
		return []Property{}
	}
	return append(make([]Property, 0, len(properties)), properties...)
}
