// Package resolver turns a raw caption-command argument string into a
// structured AnnotationRequest. Tokens are classified against fixed
// vocabularies in priority order; everything unrecognized is caption
// text. The vocabularies are disjoint by construction, so no token can
// match twice.
package resolver

import (
	"image/color"
	"strings"

	"github.com/haoyuedashi/meme-text-bot/internal/models"
)

// ColorMap maps color names to fill colors.
var ColorMap = map[string]color.NRGBA{
	"白色": {0xFF, 0xFF, 0xFF, 0xFF},
	"黑色": {0x00, 0x00, 0x00, 0xFF},
	"红色": {0xFF, 0x00, 0x00, 0xFF},
	"黄色": {0xFF, 0xFF, 0x00, 0xFF},
	"蓝色": {0x00, 0x00, 0xFF, 0xFF},
	"绿色": {0x00, 0xFF, 0x00, 0xFF},
	"粉色": {0xFF, 0x69, 0xB4, 0xFF},
	"紫色": {0x94, 0x00, 0xD3, 0xFF},
}

// SizeMap maps size names to font scale as a fraction of image width.
var SizeMap = map[string]float64{
	"小字体": 0.05,
	"中字体": 0.08,
	"大字体": 0.12,
}

// PositionMap maps canonical anchor names to (x, y) ratios.
var PositionMap = map[string][2]float64{
	"上左": {0.15, 0.15},
	"上中": {0.50, 0.15},
	"上右": {0.85, 0.15},
	"中左": {0.15, 0.50},
	"中":  {0.50, 0.50},
	"中右": {0.85, 0.50},
	"下左": {0.15, 0.85},
	"下中": {0.50, 0.85},
	"下右": {0.85, 0.85},
}

// positionAliases maps legacy short forms and transposed word orders
// onto the canonical anchors.
var positionAliases = map[string]string{
	"上":  "上中",
	"下":  "下中",
	"左上": "上左",
	"中上": "上中",
	"右上": "上右",
	"左中": "中左",
	"右中": "中右",
	"左下": "下左",
	"中下": "下中",
	"右下": "下右",
}

// StrokeMap maps explicit stroke names to stroke colors.
var StrokeMap = map[string]color.NRGBA{
	"白色描边": {0xFF, 0xFF, 0xFF, 0xFF},
	"黑色描边": {0x00, 0x00, 0x00, 0xFF},
}

// lightColors are fill colors that get a black auto-stroke; every other
// fill gets white.
var lightColors = map[string]bool{
	"白色": true,
	"黄色": true,
	"粉色": true,
}

// Defaults are the configured fallbacks applied to absent fields.
type Defaults struct {
	Color    string
	Size     string
	Position string
}

// NormalizePosition returns the canonical anchor for a position token.
// Canonical names pass through unchanged; aliases map to their anchor;
// anything else falls back to 下中.
func NormalizePosition(position string) string {
	if _, ok := PositionMap[position]; ok {
		return position
	}
	if canonical, ok := positionAliases[position]; ok {
		return canonical
	}
	return "下中"
}

// IsPosition reports whether the token names an anchor, canonical or alias.
func IsPosition(token string) bool {
	if _, ok := PositionMap[token]; ok {
		return true
	}
	_, ok := positionAliases[token]
	return ok
}

// Resolve splits rawArgs on whitespace and classifies each token.
// First matching vocabulary wins; unmatched tokens become caption text
// in their original order.
func Resolve(rawArgs string, defaults Defaults) models.AnnotationRequest {
	req := models.AnnotationRequest{
		Color:    defaults.Color,
		Size:     defaults.Size,
		Position: NormalizePosition(defaults.Position),
	}

	var textParts []string
	for _, token := range strings.Fields(rawArgs) {
		switch {
		case hasColor(token):
			req.Color = token
		case hasSize(token):
			req.Size = token
		case IsPosition(token):
			req.Position = NormalizePosition(token)
		case hasStroke(token):
			req.Stroke = token
		default:
			textParts = append(textParts, token)
		}
	}
	req.Text = strings.Join(textParts, " ")
	return req
}

// AutoStrokeColor picks a high-contrast outline for the fill color:
// black for light fills, white for everything else.
func AutoStrokeColor(textColor string) color.NRGBA {
	if lightColors[textColor] {
		return color.NRGBA{0x00, 0x00, 0x00, 0xFF}
	}
	return color.NRGBA{0xFF, 0xFF, 0xFF, 0xFF}
}

// FillColor returns the fill for a color name, defaulting to white for
// names outside the vocabulary.
func FillColor(name string) color.NRGBA {
	if c, ok := ColorMap[name]; ok {
		return c
	}
	return color.NRGBA{0xFF, 0xFF, 0xFF, 0xFF}
}

// StrokeColor returns the stroke for an explicit stroke name and whether
// the name is part of the stroke vocabulary.
func StrokeColor(name string) (color.NRGBA, bool) {
	c, ok := StrokeMap[name]
	return c, ok
}

// SizeFraction returns the width fraction for a size name, defaulting
// to the medium scale for names outside the vocabulary.
func SizeFraction(name string) float64 {
	if f, ok := SizeMap[name]; ok {
		return f
	}
	return 0.08
}

// AnchorRatio returns the (x, y) ratios for a position, normalizing
// aliases first.
func AnchorRatio(position string) (float64, float64) {
	p := PositionMap[NormalizePosition(position)]
	return p[0], p[1]
}

func hasColor(token string) bool {
	_, ok := ColorMap[token]
	return ok
}

func hasSize(token string) bool {
	_, ok := SizeMap[token]
	return ok
}

func hasStroke(token string) bool {
	_, ok := StrokeMap[token]
	return ok
}
