// Package key implements namespaced identifiers of the form "namespace:key".
package key

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

const (
	MinecraftNamespace = "minecraft"
	MachineNamespace   = "machine"
)

var ErrInvalidKey = errors.New("invalid namespaced key")

// Keyed is implemented by anything that is identified by a NamespacedKey.
type Keyed interface {
	Key() NamespacedKey
}

// NamespacedKey is an immutable "namespace:key" identifier. The zero value
// is not a valid key.
type NamespacedKey struct {
	namespace string
	key       string
}

// New validates namespace and key against the documented character set:
// lowercase ASCII letters, digits, '.', '-' and '_' for the namespace, plus
// '/' for the key.
func New(namespace, key string) (NamespacedKey, error) {
	return newKey(namespace, key, isStrictNamespaceRune)
}

// NewLenient accepts any Unicode letter where New only accepts lowercase
// ASCII. Some servers historically validated namespaces this way even
// though the documented format is [a-z0-9._-].
func NewLenient(namespace, key string) (NamespacedKey, error) {
	return newKey(namespace, key, isLenientNamespaceRune)
}

// Minecraft returns a key in the "minecraft" namespace.
func Minecraft(key string) (NamespacedKey, error) {
	return New(MinecraftNamespace, key)
}

// Machine returns a key in the "machine" namespace.
func Machine(key string) (NamespacedKey, error) {
	return New(MachineNamespace, key)
}

// MustParse is like Parse but panics on error. Intended for constants.
func MustParse(s string) NamespacedKey {
	k, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return k
}

// Parse splits s at the first ':' and validates both halves with New.
func Parse(s string) (NamespacedKey, error) {
	namespace, key, ok := strings.Cut(s, ":")
	if !ok {
		return NamespacedKey{}, fmt.Errorf("%w: %q has no separator ':'", ErrInvalidKey, s)
	}
	return New(namespace, key)
}

// ParseLenient is Parse with the validation rules of NewLenient.
func ParseLenient(s string) (NamespacedKey, error) {
	namespace, key, ok := strings.Cut(s, ":")
	if !ok {
		return NamespacedKey{}, fmt.Errorf("%w: %q has no separator ':'", ErrInvalidKey, s)
	}
	return NewLenient(namespace, key)
}

func (k NamespacedKey) Namespace() string {
	return k.namespace
}

func (k NamespacedKey) Key() string {
	return k.key
}

func (k NamespacedKey) WithNamespace(namespace string) (NamespacedKey, error) {
	return New(namespace, k.key)
}

func (k NamespacedKey) WithKey(key string) (NamespacedKey, error) {
	return New(k.namespace, key)
}

func (k NamespacedKey) IsZero() bool {
	return k == NamespacedKey{}
}

func (k NamespacedKey) String() string {
	return k.namespace + ":" + k.key
}

func (k NamespacedKey) MarshalText() ([]byte, error) {
	if k.IsZero() {
		return nil, fmt.Errorf("%w: zero value", ErrInvalidKey)
	}
	return []byte(k.String()), nil
}

func (k *NamespacedKey) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

func newKey(namespace, key string, validNamespaceRune func(rune) bool) (NamespacedKey, error) {
	if namespace == "" || key == "" {
		return NamespacedKey{}, fmt.Errorf("%w: %q:%q has an empty part", ErrInvalidKey, namespace, key)
	}

	for _, r := range namespace {
		if !validNamespaceRune(r) {
			return NamespacedKey{}, fmt.Errorf("%w: namespace %q contains %q", ErrInvalidKey, namespace, r)
		}
	}

	for _, r := range key {
		if r != '/' && !validNamespaceRune(r) {
			return NamespacedKey{}, fmt.Errorf("%w: key %q contains %q", ErrInvalidKey, key, r)
		}
	}

	return NamespacedKey{
		namespace: namespace,
		key:       key,
	}, nil
}

func isStrictNamespaceRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_'
}

func isLenientNamespaceRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '-' || r == '_'
}
