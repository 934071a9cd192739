package digest

import (
	"context"
	"fmt"

	"github.com/notepid/pindoc/internal/history"
)

// AddByID resolves each ID through src and appends its section. Channels
// the source cannot read or that are neither text nor category are
// rejected before anything is added.
func (d *Document) AddByID(ctx context.Context, src history.Resolver, ids ...string) error {
	resolved := make([]history.Channel, 0, len(ids))
	for _, id := range ids {
		ch, err := src.Channel(ctx, id)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", id, err)
		}
		if !ch.Viewable {
			return fmt.Errorf("channel %s (%s) is not viewable", ch.Name, id)
		}
		if ch.Kind != history.KindCategory && !ch.Kind.IsText() {
			return fmt.Errorf("channel %s (%s) is %s, not a text channel or category", ch.Name, id, ch.Kind)
		}
		resolved = append(resolved, *ch)
	}
	for _, ch := range resolved {
		d.Add(ch)
	}
	return nil
}
