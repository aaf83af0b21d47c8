package profile

import "fmt"

// Property is a named value carried by a GameProfile. Signature holds the
// base64 encoded Mojang signature of Value; it is empty for unsigned
// properties.
type Property struct {
	Name      string `json:"name"`
	Value     string `json:"value"`
	Signature string `json:"signature,omitempty"`
}

// NewProperty returns a signed property. Pass an empty signature for an
// unsigned one.
func NewProperty(name, value, signature string) (Property, error) {
	if name == "" {
		return Property{}, fmt.Errorf("%w: property name is empty", ErrInvalidArgument)
	}
	if value == "" {
		return Property{}, fmt.Errorf("%w: value of property %q is empty", ErrInvalidArgument, name)
	}

	return Property{
		Name:      name,
		Value:     value,
		Signature: signature,
	}, nil
}

func (p Property) IsSigned() bool {
	return p.Signature != ""
}

func (p Property) String() string {
	return fmt.Sprintf("Property{Name:%s,Value:%s,Signature:%s}",
		p.Name, p.Value, p.Signature)
}
