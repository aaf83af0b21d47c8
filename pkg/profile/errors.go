package profile

import "errors"

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotTextures     = errors.New("property is not a textures property")
	ErrMalformedValue  = errors.New("malformed textures value")
	ErrMalformedJSON   = errors.New("malformed textures json")
	ErrMalformedURL    = errors.New("malformed textures url")
)
