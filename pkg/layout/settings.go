package layout

import "fmt"

// LayerSettings is the user-editable view of one layer, as shown in a
// layer list and persisted in config files.
type LayerSettings struct {
	Index   int16   `json:"index" toml:"index"`
	Visible bool    `json:"visible" toml:"visible"`
	Opacity float32 `json:"opacity" toml:"opacity"`
	Color   string  `json:"color" toml:"color"`
	Empty   bool    `json:"empty" toml:"-"`
}

// ExportLayers returns the settings of every layer in discovery order.
func ExportLayers(s *Store) []LayerSettings {
	out := make([]LayerSettings, len(s.layers))
	for i, l := range s.layers {
		out[i] = LayerSettings{
			Index:   l.Index,
			Visible: l.Visible,
			Opacity: l.Color.A,
			Color:   l.Color.Hex(),
			Empty:   l.IsEmpty(),
		}
	}
	return out
}

// ApplyLayerSettings writes visibility, opacity and color back into the
// layers with matching indices. Nothing is changed if any entry names an
// unknown layer or carries an unparsable color.
func ApplyLayerSettings(s *Store, settings []LayerSettings) error {
	type update struct {
		id    LayerID
		color Color
		set   LayerSettings
	}
	updates := make([]update, 0, len(settings))
	for _, ls := range settings {
		id, ok := s.LayerByIndex(ls.Index)
		if !ok {
			return fmt.Errorf("%w: index %d", ErrUnknownLayer, ls.Index)
		}
		c, err := ParseHexColor(ls.Color)
		if err != nil {
			return fmt.Errorf("layer %d: %w", ls.Index, err)
		}
		updates = append(updates, update{id: id, color: c.WithAlpha(ls.Opacity), set: ls})
	}
	for _, u := range updates {
		l := &s.layers[u.id-1]
		l.Visible = u.set.Visible
		l.Color = u.color
	}
	return nil
}
