package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
)

// propertyLength is how much of a property value is fetched, in 32-bit
// units whatever the property's format. Longer values are truncated.
const propertyLength = 256

// Property is one window property. Atom-typed values are resolved to
// names in Atoms; every other type is returned raw in Data.
type Property struct {
	Name   string
	Type   string
	Format int
	Items  int
	Atoms  []string
	Data   []byte
}

// Properties lists every property on the window.
func (w *Window) Properties() ([]Property, error) {
	var props []Property
	err := w.do(func(srv Server) error {
		atoms, err := srv.ListProperties(w.id)
		if err != nil {
			return fmt.Errorf("failed to list properties: %w", err)
		}

		props = make([]Property, 0, len(atoms))
		for _, atom := range atoms {
			value, err := srv.GetProperty(w.id, atom, propertyLength)
			if err != nil {
				w.conn.logger.Debug("failed to get property", "window", w.id, "atom", atom, "error", err)
				continue
			}
			name, err := srv.AtomName(atom)
			if err != nil {
				name = fmt.Sprintf("#%d", atom)
			}
			if value.BytesAfter > 0 {
				w.conn.logger.Debug("property value truncated",
					"window", w.id, "property", name, "bytes_left", value.BytesAfter)
			}

			p := Property{
				Name:   name,
				Type:   typeName(srv, value.Type),
				Format: int(value.Format),
				Items:  value.Items,
			}
			if p.Type == "ATOM" {
				p.Atoms = atomNames(srv, value)
			} else {
				p.Data = value.Data
			}
			props = append(props, p)
		}
		return nil
	})
	return props, err
}

func typeName(srv Server, atom xproto.Atom) string {
	if atom == 0 {
		return "None"
	}
	name, err := srv.AtomName(atom)
	if err != nil {
		return fmt.Sprintf("#%d", atom)
	}
	return name
}

// atomNames decodes a format-32 property value as a list of atom names.
func atomNames(srv Server, value PropertyValue) []string {
	if value.Format != 32 {
		return nil
	}
	names := make([]string, 0, value.Items)
	for i := 0; i+4 <= len(value.Data) && len(names) < value.Items; i += 4 {
		atom := xproto.Atom(xgb.Get32(value.Data[i:]))
		name, err := srv.AtomName(atom)
		if err != nil {
			name = fmt.Sprintf("#%d", atom)
		}
		names = append(names, name)
	}
	return names
}
