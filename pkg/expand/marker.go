package expand

import (
	"github.com/praetorian-inc/cobprep/pkg/source"
	"github.com/praetorian-inc/cobprep/pkg/types"
)

// marker marks every token of a copybook as standing in for the COPY
// statement that included it.
type marker struct {
	source.Decorator
	replaced *types.Replaced
}

func newMarker(inner source.Source, replaced *types.Replaced) *marker {
	return &marker{Decorator: source.Decorator{Inner: inner}, replaced: replaced}
}

func (m *marker) Next() (types.Data, error) {
	if d, ok := m.Pop(); ok {
		return d, nil
	}
	d, err := m.Inner.Next()
	if err != nil {
		return nil, err
	}
	if tok, ok := d.(types.Token); ok {
		return tok.MarkReplaced(m.replaced), nil
	}
	return d, nil
}
