package annotator

import (
	"bytes"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/haoyuedashi/meme-text-bot/internal/models"
)

func newTestAnnotator(t *testing.T) *Annotator {
	t.Helper()
	return New(&FontSource{}, true, 2, zap.NewNop())
}

func testRequest(text string) models.AnnotationRequest {
	return models.AnnotationRequest{
		Text:     text,
		Color:    "白色",
		Size:     "中字体",
		Position: "下中",
	}
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0x80
	}
	buf := &bytes.Buffer{}
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	buf := &bytes.Buffer{}
	require.NoError(t, jpeg.Encode(buf, img, nil))
	return buf.Bytes()
}

func encodeGIF(t *testing.T, w, h int, delays []int) []byte {
	t.Helper()
	g := &gif.GIF{LoopCount: 0}
	for _, d := range delays {
		frame := image.NewPaletted(image.Rect(0, 0, w, h), palette.Plan9)
		g.Image = append(g.Image, frame)
		g.Delay = append(g.Delay, d)
	}
	buf := &bytes.Buffer{}
	require.NoError(t, gif.EncodeAll(buf, g))
	return buf.Bytes()
}

func TestAnnotatePNGRoundTrip(t *testing.T) {
	a := newTestAnnotator(t)

	asset, err := a.Annotate(encodePNG(t, 200, 150), testRequest("hello"))
	require.NoError(t, err)
	assert.Equal(t, "png", asset.Format)
	assert.Equal(t, "png", asset.Ext())

	decoded, format, err := image.Decode(bytes.NewReader(asset.Data))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 200, decoded.Bounds().Dx())
	assert.Equal(t, 150, decoded.Bounds().Dy())
}

func TestAnnotateJPEGStaysJPEG(t *testing.T) {
	a := newTestAnnotator(t)

	asset, err := a.Annotate(encodeJPEG(t, 120, 90), testRequest("hi"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", asset.Format)
	assert.Equal(t, "jpg", asset.Ext())

	decoded, format, err := image.Decode(bytes.NewReader(asset.Data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 120, decoded.Bounds().Dx())
	assert.Equal(t, 90, decoded.Bounds().Dy())
}

func TestAnnotateGIFPreservesFrames(t *testing.T) {
	a := newTestAnnotator(t)
	delays := []int{10, 20, 30}

	asset, err := a.Annotate(encodeGIF(t, 80, 60, delays), testRequest("go"))
	require.NoError(t, err)
	assert.Equal(t, "gif", asset.Format)

	out, err := gif.DecodeAll(bytes.NewReader(asset.Data))
	require.NoError(t, err)
	require.Len(t, out.Image, len(delays))
	assert.Equal(t, delays, out.Delay)
	assert.Equal(t, 0, out.LoopCount)
	for _, frame := range out.Image {
		assert.Equal(t, 80, frame.Bounds().Dx())
		assert.Equal(t, 60, frame.Bounds().Dy())
	}
}

func TestAnnotateGIFCompositesPartialFrames(t *testing.T) {
	a := newTestAnnotator(t)

	// Optimized animation: frame 1 fills the canvas, frame 2 is a small
	// patch that relies on frame 1 staying on screen.
	red := color.RGBA{0xFF, 0x00, 0x00, 0xFF}
	blue := color.RGBA{0x00, 0x00, 0xFF, 0xFF}
	pal := color.Palette{red, blue}

	full := image.NewPaletted(image.Rect(0, 0, 100, 100), pal)
	patch := image.NewPaletted(image.Rect(0, 0, 10, 10), pal)
	for i := range patch.Pix {
		patch.Pix[i] = 1
	}

	src := &gif.GIF{
		Image:    []*image.Paletted{full, patch},
		Delay:    []int{10, 10},
		Disposal: []byte{gif.DisposalNone, gif.DisposalNone},
	}
	buf := &bytes.Buffer{}
	require.NoError(t, gif.EncodeAll(buf, src))

	req := testRequest("x")
	req.Position = "中中"
	asset, err := a.Annotate(buf.Bytes(), req)
	require.NoError(t, err)

	out, err := gif.DecodeAll(bytes.NewReader(asset.Data))
	require.NoError(t, err)
	require.Len(t, out.Image, 2)

	// The second output frame keeps frame 1's pixels outside the patch.
	got := color.NRGBAModel.Convert(out.Image[1].At(90, 90)).(color.NRGBA)
	assert.Equal(t, color.NRGBA{0xFF, 0x00, 0x00, 0xFF}, got)

	// And the patch itself is drawn on top.
	got = color.NRGBAModel.Convert(out.Image[1].At(5, 5)).(color.NRGBA)
	assert.Equal(t, color.NRGBA{0x00, 0x00, 0xFF, 0xFF}, got)
}

func TestAnnotateRejectsGarbage(t *testing.T) {
	a := newTestAnnotator(t)
	_, err := a.Annotate([]byte("not an image"), testRequest("x"))
	assert.Error(t, err)
}

func TestFontSizeFor(t *testing.T) {
	// Scales with width.
	assert.Equal(t, 40, fontSizeFor(500, 0.08))
	assert.Equal(t, 60, fontSizeFor(500, 0.12))
	// Clamped below.
	assert.Equal(t, 12, fontSizeFor(100, 0.05))
	// Clamped above.
	assert.Equal(t, 200, fontSizeFor(10000, 0.12))
}

func TestClampOriginKeepsTextOnCanvas(t *testing.T) {
	// 100x100 image: padding = max(8, 4) = 8.
	const w, h = 100, 100

	// Text wider and taller than the canvas: origin pinned to padding.
	x, y := clampOrigin(-60, -30, w, h, 200, 120)
	assert.Equal(t, 8, x)
	assert.Equal(t, 8, y)

	// Anchor pushing the box past the far edge clamps to the inset.
	x, y = clampOrigin(95, 95, w, h, 40, 20)
	assert.Equal(t, 100-40-8, x)
	assert.Equal(t, 100-20-8, y)

	// A comfortably interior origin is untouched.
	x, y = clampOrigin(30, 40, w, h, 40, 20)
	assert.Equal(t, 30, x)
	assert.Equal(t, 40, y)
}

func TestPaddingFor(t *testing.T) {
	assert.Equal(t, 8, paddingFor(100, 100))
	assert.Equal(t, 20, paddingFor(800, 500))
	assert.Equal(t, 8, paddingFor(50, 4000))
}

func TestStrokeForPrecedence(t *testing.T) {
	white := color.NRGBA{0xFF, 0xFF, 0xFF, 0xFF}
	black := color.NRGBA{0x00, 0x00, 0x00, 0xFF}

	// Explicit stroke wins over auto.
	req := testRequest("x")
	req.Stroke = "黑色描边"
	assert.Equal(t, black, strokeFor(req, true))

	// Auto stroke picks by fill lightness: red is not light, so white.
	req = testRequest("x")
	req.Color = "红色"
	assert.Equal(t, white, strokeFor(req, true))

	// Light fill gets black.
	req.Color = "黄色"
	assert.Equal(t, black, strokeFor(req, true))

	// Auto disabled and no explicit stroke: none.
	assert.Nil(t, strokeFor(req, false))
}

func TestFaceFallsBackWithoutFont(t *testing.T) {
	var src *FontSource
	face, err := src.Face(40)
	require.NoError(t, err)
	require.NotNil(t, face)
}
