package annotator

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
)

// Bundled fonts are probed in order under the configured fonts
// directory before any system path.
var bundledFontNames = []string{
	"Alibaba-PuHuiTi-Bold.ttf",
	"Alibaba-PuHuiTi-Medium.ttf",
	"SOURCEHANSANSCN-BOLD.OTF",
	"SOURCEHANSANSCN-MEDIUM.OTF",
	"msyh.ttc",
	"simhei.ttf",
}

var systemFontPaths = []string{
	"C:/Windows/Fonts/msyh.ttc",
	"C:/Windows/Fonts/simhei.ttf",
	"C:/Windows/Fonts/simsun.ttc",
	"/usr/share/fonts/truetype/noto/NotoSansSC-Regular.ttf",
	"/System/Library/Fonts/PingFang.ttc",
}

// FontSource holds a parsed font, resolved once at startup and reused
// for every request. A zero FontSource renders with the minimal
// built-in face.
type FontSource struct {
	font *opentype.Font
}

// ResolveFont probes the bundled candidates, then the known OS font
// paths, and parses the first file that exists. When nothing usable is
// found it logs a warning and returns a source backed by the built-in
// face so annotation still works.
func ResolveFont(fontsDir string, logger *zap.Logger) *FontSource {
	for _, name := range bundledFontNames {
		path := filepath.Join(fontsDir, name)
		if src := tryLoadFont(path, logger); src != nil {
			logger.Info("using bundled font", zap.String("path", path))
			return src
		}
	}
	for _, path := range systemFontPaths {
		if src := tryLoadFont(path, logger); src != nil {
			logger.Info("using system font", zap.String("path", path))
			return src
		}
	}
	logger.Warn("no CJK-capable font found, using built-in face")
	return &FontSource{}
}

func tryLoadFont(path string, logger *zap.Logger) *FontSource {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	src, err := loadFontFile(path)
	if err != nil {
		logger.Warn("failed to parse font file", zap.String("path", path), zap.Error(err))
		return nil
	}
	return src
}

func loadFontFile(path string) (*FontSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font file: %w", err)
	}
	f, err := opentype.Parse(data)
	if err == nil {
		return &FontSource{font: f}, nil
	}
	// .ttc collections don't parse as a single font; take the first face.
	coll, cerr := opentype.ParseCollection(data)
	if cerr != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	f, cerr = coll.Font(0)
	if cerr != nil {
		return nil, fmt.Errorf("parse font collection: %w", cerr)
	}
	return &FontSource{font: f}, nil
}

// Face builds a face at the requested pixel size. The built-in fallback
// ignores the size; it only has one.
func (s *FontSource) Face(size float64) (font.Face, error) {
	if s == nil || s.font == nil {
		return basicfont.Face7x13, nil
	}
	return opentype.NewFace(s.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}
