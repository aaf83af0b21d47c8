package profile

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// TexturesProperty is the name of the property that carries skin and cape
// information.
const TexturesProperty = "textures"

// PlayerTextures is a decoded textures property. The original base64 value
// is kept so the property can be sent on unchanged; Mojang signs that exact
// string.
type PlayerTextures struct {
	value     string
	signature string
	skinURL   *url.URL
	capeURL   *url.URL
	skinModel SkinModel
	hasModel  bool
}

// DecodeTextures decodes a base64 textures value. An empty signature marks
// the textures as unsigned.
func DecodeTextures(value, signature string) (PlayerTextures, error) {
	raw, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return PlayerTextures{}, fmt.Errorf("%w: %v", ErrMalformedValue, err)
	}

	root, err := decodeObject(raw)
	if err != nil {
		return PlayerTextures{}, fmt.Errorf("%w: top level value: %v", ErrMalformedJSON, err)
	}

	textures, err := root.object("textures")
	if err != nil {
		return PlayerTextures{}, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}

	skin, err := textures.object("SKIN")
	if err != nil {
		return PlayerTextures{}, fmt.Errorf("%w: textures: %v", ErrMalformedJSON, err)
	}

	skinURL, err := textureURL(skin, "SKIN")
	if err != nil {
		return PlayerTextures{}, err
	}

	var capeURL *url.URL
	if textures.has("CAPE") {
		cape, err := textures.object("CAPE")
		if err != nil {
			return PlayerTextures{}, fmt.Errorf("%w: textures: %v", ErrMalformedJSON, err)
		}
		capeURL, err = textureURL(cape, "CAPE")
		if err != nil {
			return PlayerTextures{}, err
		}
	}

	model, hasModel := decodeSkinModel(skin["metadata"])

	return PlayerTextures{
		value:     value,
		signature: signature,
		skinURL:   skinURL,
		capeURL:   capeURL,
		skinModel: model,
		hasModel:  hasModel,
	}, nil
}

// TexturesFromProperty decodes p, which must be named "textures".
func TexturesFromProperty(p Property) (PlayerTextures, error) {
	if p.Name != TexturesProperty {
		return PlayerTextures{}, fmt.Errorf("%w: %q", ErrNotTextures, p.Name)
	}
	return DecodeTextures(p.Value, p.Signature)
}

// TexturesFromProfile decodes the first textures property of g. ok is false
// when g has none.
func TexturesFromProfile(g GameProfile) (t PlayerTextures, ok bool, err error) {
	p, ok := g.Property(TexturesProperty)
	if !ok {
		return PlayerTextures{}, false, nil
	}

	t, err = TexturesFromProperty(p)
	if err != nil {
		return PlayerTextures{}, true, err
	}
	return t, true, nil
}

// NewUnsignedTextures builds an unsigned textures value pointing at skinURL.
func NewUnsignedTextures(skinURL *url.URL) (PlayerTextures, error) {
	p, err := UnsignedTexturesProperty(skinURL)
	if err != nil {
		return PlayerTextures{}, err
	}
	return TexturesFromProperty(p)
}

// UnsignedTexturesProperty encodes
// {"signatureRequired":false,"textures":{"SKIN":{"url":"<skinURL>"}}}
// as an unsigned textures property.
func UnsignedTexturesProperty(skinURL *url.URL) (Property, error) {
	if skinURL == nil {
		return Property{}, fmt.Errorf("%w: skin url is nil", ErrInvalidArgument)
	}

	type skin struct {
		URL string `json:"url"`
	}
	type textures struct {
		Skin skin `json:"SKIN"`
	}
	payload := struct {
		SignatureRequired bool     `json:"signatureRequired"`
		Textures          textures `json:"textures"`
	}{
		Textures: textures{
			Skin: skin{URL: skinURL.String()},
		},
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return Property{}, err
	}

	value := base64.StdEncoding.EncodeToString(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
	return NewProperty(TexturesProperty, value, "")
}

// Value returns the base64 value exactly as it was decoded.
func (t PlayerTextures) Value() string {
	return t.value
}

func (t PlayerTextures) Signature() string {
	return t.signature
}

func (t PlayerTextures) IsSigned() bool {
	return t.signature != ""
}

func (t PlayerTextures) SkinURL() *url.URL {
	return copyURL(t.skinURL)
}

// CapeURL returns nil when the player has no cape.
func (t PlayerTextures) CapeURL() *url.URL {
	return copyURL(t.capeURL)
}

// SkinModel reports the model declared in the skin metadata. ok is false
// when the metadata is missing or names an unknown model.
func (t PlayerTextures) SkinModel() (model SkinModel, ok bool) {
	return t.skinModel, t.hasModel
}

// AsProperty re-emits the textures with the original value and signature.
func (t PlayerTextures) AsProperty() Property {
	return Property{
		Name:      TexturesProperty,
		Value:     t.value,
		Signature: t.signature,
	}
}

func parseTextureURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q is not absolute", ErrMalformedURL, raw)
	}
	return u, nil
}

func textureURL(texture object, name string) (*url.URL, error) {
	if !texture.has("url") {
		return nil, fmt.Errorf("%w: missing textures.%s.url", ErrMalformedJSON, name)
	}
	raw, err := texture.string("url")
	if err != nil {
		return nil, fmt.Errorf("%w: textures.%s: %v", ErrMalformedJSON, name, err)
	}
	return parseTextureURL(raw)
}

func decodeSkinModel(raw json.RawMessage) (SkinModel, bool) {
	if len(raw) == 0 {
		return 0, false
	}

	metadata, err := decodeObject(raw)
	if err != nil {
		return 0, false
	}
	model, err := metadata.string("model")
	if err != nil {
		return 0, false
	}

	return SkinModelByName(strings.ToUpper(model))
}

func copyURL(u *url.URL) *url.URL {
	if u == nil {
		return nil
	}
	c := *u
	if u.User != nil {
		user := *u.User
		c.User = &user
	}
	return &c
}
