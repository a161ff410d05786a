package watermark

import "errors"

var (
	ErrAssetNotFound    = errors.New("watermark image not found")
	ErrAssetDecode      = errors.New("failed to decode watermark image")
	ErrAssetNotLoaded   = errors.New("watermark image not loaded")
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrImageDecode      = errors.New("failed to decode image")
	ErrImageWrite       = errors.New("failed to write image")
)
