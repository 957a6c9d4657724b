package layout

import "fmt"

// Theme selects the viewer background.
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// ApplyTheme recolors every layer for the given background. All layers get
// the same color, white on dark and black on light, with an alpha of one
// over the number of non-empty layers so that overlaps stay readable. The
// shared material blends source-over on dark and additively on light.
func ApplyTheme(s *Store, theme Theme) error {
	var base Color
	var blend BlendMode
	switch theme {
	case ThemeDark:
		base, blend = White, BlendSourceOver
	case ThemeLight:
		base, blend = Black, BlendAdditive
	default:
		return fmt.Errorf("unknown theme %q", theme)
	}

	count := 0
	for i := range s.layers {
		if !s.layers[i].IsEmpty() {
			count++
		}
	}
	alpha := float32(1)
	if count > 0 {
		alpha = 1 / float32(count)
	}

	for i := range s.layers {
		s.layers[i].Color = base.WithAlpha(alpha)
	}
	if s.material == nil {
		s.material = &Material{}
	}
	s.material.Blend = blend
	return nil
}
