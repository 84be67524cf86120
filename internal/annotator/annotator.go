// Package annotator draws caption text onto static and animated
// images, preserving the source format family on re-encode.
package annotator

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/haoyuedashi/meme-text-bot/internal/models"
	"github.com/haoyuedashi/meme-text-bot/internal/resolver"
)

const (
	minFontSize = 12
	maxFontSize = 200
)

type Annotator struct {
	fonts       *FontSource
	autoStroke  bool
	strokeWidth int
	logger      *zap.Logger
}

func New(fonts *FontSource, autoStroke bool, strokeWidth int, logger *zap.Logger) *Annotator {
	return &Annotator{
		fonts:       fonts,
		autoStroke:  autoStroke,
		strokeWidth: strokeWidth,
		logger:      logger,
	}
}

// Annotate decodes the image, draws the requested caption and
// re-encodes in the source's format family. Animated inputs are
// processed frame by frame; static inputs are drawn once.
func (a *Annotator) Annotate(data []byte, req models.AnnotationRequest) (*models.ImageAsset, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	if format == "gif" {
		return a.annotateGIF(data, req)
	}
	return a.annotateStatic(data, req)
}

func (a *Annotator) annotateStatic(data []byte, req models.AnnotationRequest) (*models.ImageAsset, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	canvas := imaging.Clone(img)
	if err := a.drawCaption(canvas, req); err != nil {
		return nil, err
	}

	buf := &bytes.Buffer{}
	switch format {
	case "jpeg":
		// Flatten to no-alpha RGB; quality 100 keeps 4:4:4 sampling so
		// the added text stays crisp.
		flat := image.NewRGBA(canvas.Bounds())
		draw.Draw(flat, flat.Bounds(), canvas, canvas.Bounds().Min, draw.Src)
		if err := jpeg.Encode(buf, flat, &jpeg.Options{Quality: 100}); err != nil {
			return nil, fmt.Errorf("failed to encode image: %w", err)
		}
		return &models.ImageAsset{Data: buf.Bytes(), Format: "jpeg"}, nil
	default:
		// Everything non-JPEG re-encodes losslessly.
		if err := png.Encode(buf, canvas); err != nil {
			return nil, fmt.Errorf("failed to encode image: %w", err)
		}
		return &models.ImageAsset{Data: buf.Bytes(), Format: "png"}, nil
	}
}

func (a *Annotator) annotateGIF(data []byte, req models.AnnotationRequest) (*models.ImageAsset, error) {
	src, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode gif: %w", err)
	}
	if len(src.Image) == 0 {
		return nil, fmt.Errorf("gif has no frames")
	}

	width, height := src.Config.Width, src.Config.Height
	if width == 0 || height == 0 {
		b := src.Image[0].Bounds()
		width, height = b.Dx(), b.Dy()
	}
	rect := image.Rect(0, 0, width, height)

	out := &gif.GIF{
		Image:     make([]*image.Paletted, 0, len(src.Image)),
		Delay:     make([]int, 0, len(src.Image)),
		Disposal:  make([]byte, 0, len(src.Image)),
		LoopCount: 0,
	}
	pal := gifPalette(src, req, a.autoStroke)

	// Optimized GIFs store later frames as partial patches over the
	// previous state, so frames composite onto a running canvas that
	// honors each source frame's disposal mode.
	accum := image.NewNRGBA(rect)
	for i, frame := range src.Image {
		disposal := byte(gif.DisposalNone)
		if i < len(src.Disposal) {
			disposal = src.Disposal[i]
		}
		var restore *image.NRGBA
		if disposal == gif.DisposalPrevious {
			restore = cloneNRGBA(accum)
		}

		draw.Draw(accum, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)

		// Caption goes on a copy so it never leaks into the running
		// state a later patch frame composites over.
		composite := cloneNRGBA(accum)
		if err := a.drawCaption(composite, req); err != nil {
			return nil, err
		}

		paletted := image.NewPaletted(rect, pal)
		draw.Draw(paletted, rect, composite, rect.Min, draw.Src)

		delay := 10
		if i < len(src.Delay) {
			delay = src.Delay[i]
		}
		out.Image = append(out.Image, paletted)
		out.Delay = append(out.Delay, delay)
		// Output frames are full composites, so restore-to-background
		// keeps earlier frames from bleeding through on players that
		// don't redraw the full canvas.
		out.Disposal = append(out.Disposal, gif.DisposalBackground)

		switch disposal {
		case gif.DisposalBackground:
			draw.Draw(accum, frame.Bounds(), image.Transparent, image.Point{}, draw.Src)
		case gif.DisposalPrevious:
			accum = restore
		}
	}

	buf := &bytes.Buffer{}
	if err := gif.EncodeAll(buf, out); err != nil {
		return nil, fmt.Errorf("failed to encode gif: %w", err)
	}
	return &models.ImageAsset{Data: buf.Bytes(), Format: "gif"}, nil
}

// gifPalette merges every source frame's palette and appends the
// caption colors, so composited frames and the drawn text both survive
// re-quantization unchanged. Patch frames may carry partial palettes;
// quantizing their composite against the merged set keeps colors
// inherited from earlier frames intact.
func gifPalette(src *gif.GIF, req models.AnnotationRequest, autoStroke bool) color.Palette {
	seen := make(map[color.NRGBA]bool)
	var pal color.Palette
	add := func(c color.Color) {
		if c == nil || len(pal) >= 256 {
			return
		}
		key := color.NRGBAModel.Convert(c).(color.NRGBA)
		if seen[key] {
			return
		}
		seen[key] = true
		pal = append(pal, c)
	}
	for _, frame := range src.Image {
		for _, c := range frame.Palette {
			add(c)
		}
	}
	add(resolver.FillColor(req.Color))
	add(strokeFor(req, autoStroke))
	return pal
}

func cloneNRGBA(src *image.NRGBA) *image.NRGBA {
	dst := image.NewNRGBA(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst
}

// drawCaption renders the caption onto the canvas with size, anchor and
// stroke derived from the request.
func (a *Annotator) drawCaption(canvas *image.NRGBA, req models.AnnotationRequest) error {
	bounds := canvas.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	size := fontSizeFor(width, resolver.SizeFraction(req.Size))
	face, err := a.fonts.Face(float64(size))
	if err != nil {
		return fmt.Errorf("failed to load font face: %w", err)
	}
	defer face.Close()

	textBounds, _ := font.BoundString(face, req.Text)
	textWidth := (textBounds.Max.X - textBounds.Min.X).Ceil()
	textHeight := (textBounds.Max.Y - textBounds.Min.Y).Ceil()

	xRatio, yRatio := resolver.AnchorRatio(req.Position)
	x := int(float64(width)*xRatio) - textWidth/2
	y := int(float64(height)*yRatio) - textHeight/2
	x, y = clampOrigin(x, y, width, height, textWidth, textHeight)

	// Dot is the baseline origin; shift it so the bounding box's
	// top-left lands on the clamped origin.
	dot := fixed.Point26_6{
		X: fixed.I(x) - textBounds.Min.X,
		Y: fixed.I(y) - textBounds.Min.Y,
	}

	fill := resolver.FillColor(req.Color)
	if stroke := strokeFor(req, a.autoStroke); stroke != nil {
		a.strokeText(canvas, face, req.Text, dot, stroke)
	}
	drawString(canvas, face, req.Text, dot, fill)
	return nil
}

// strokeFor resolves the outline color: explicit request first, then
// contrast-based auto selection, else none.
func strokeFor(req models.AnnotationRequest, autoStroke bool) color.Color {
	if req.Stroke != "" {
		if c, ok := resolver.StrokeColor(req.Stroke); ok {
			return c
		}
	}
	if autoStroke {
		return resolver.AutoStrokeColor(req.Color)
	}
	return nil
}

// strokeText draws the caption repeatedly at offsets within the stroke
// radius, producing the outline the fill is drawn over.
func (a *Annotator) strokeText(dst *image.NRGBA, face font.Face, text string, dot fixed.Point26_6, c color.Color) {
	w := a.strokeWidth
	if w <= 0 {
		return
	}
	for dy := -w; dy <= w; dy++ {
		for dx := -w; dx <= w; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			if dx*dx+dy*dy > w*w {
				continue
			}
			offset := fixed.Point26_6{X: dot.X + fixed.I(dx), Y: dot.Y + fixed.I(dy)}
			drawString(dst, face, text, offset, c)
		}
	}
}

func drawString(dst *image.NRGBA, face font.Face, text string, dot fixed.Point26_6, c color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  dot,
	}
	d.DrawString(text)
}

// fontSizeFor scales the font with image width and clamps to sane
// pixel bounds.
func fontSizeFor(imageWidth int, fraction float64) int {
	size := int(float64(imageWidth) * fraction)
	if size < minFontSize {
		return minFontSize
	}
	if size > maxFontSize {
		return maxFontSize
	}
	return size
}

// clampOrigin keeps the text box inside an inset margin from every
// edge so extreme anchors or tiny images never push it off canvas.
func clampOrigin(x, y, width, height, textWidth, textHeight int) (int, int) {
	padding := paddingFor(width, height)
	maxX := max(padding, width-textWidth-padding)
	maxY := max(padding, height-textHeight-padding)
	x = min(max(x, padding), maxX)
	y = min(max(y, padding), maxY)
	return x, y
}

func paddingFor(width, height int) int {
	return max(8, int(0.04*float64(min(width, height))))
}
