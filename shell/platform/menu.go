package platform

import (
	"fmt"
	"hash/fnv"

	"github.com/mawren/thicket/shell/core"
)

// menuHash fingerprints a menu's structure so an unchanged menu is
// never rebuilt on regeneration.
func menuHash(m *core.Menu) uint64 {
	if m == nil {
		return 0
	}
	h := fnv.New64a()
	var walk func(items []core.MenuItem)
	walk = func(items []core.MenuItem) {
		for _, it := range items {
			fmt.Fprintf(h, "%s|%d|%t;", it.Label, it.Command, it.Separator)
			walk(it.Children)
		}
	}
	walk(m.Items)
	return h.Sum64()
}

// menuCommands flattens a menu into its command dispatch table.
func menuCommands(m *core.Menu) map[uint16]core.Callback {
	if m == nil {
		return nil
	}
	table := map[uint16]core.Callback{}
	var walk func(items []core.MenuItem)
	walk = func(items []core.MenuItem) {
		for _, it := range items {
			if it.Callback != nil && !it.Separator {
				table[it.Command] = it.Callback
			}
			walk(it.Children)
		}
	}
	walk(m.Items)
	return table
}
