package serialize

import (
	"fmt"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/opentype"
)

// measurer estimates rendered text width. Exported text uses monospace font
// family, Go Mono metrics are close enough to any of its candidates.
type measurer struct {
	font *opentype.Font

	mu    sync.Mutex
	faces map[float64]font.Face
}

func newMeasurer() (*measurer, error) {
	f, err := opentype.Parse(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("unable to parse Go Mono font: %w", err)
	}
	return &measurer{font: f, faces: make(map[float64]font.Face)}, nil
}

func (m *measurer) face(size float64) (font.Face, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if face, ok := m.faces[size]; ok {
		return face, nil
	}
	face, err := opentype.NewFace(m.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to create %g px face: %w", size, err)
	}
	m.faces[size] = face
	return face, nil
}

// width returns advance of text in user units at given font size.
func (m *measurer) width(text string, size float64) (float64, error) {
	face, err := m.face(size)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return float64(font.MeasureString(face, text)) / 64, nil
}
