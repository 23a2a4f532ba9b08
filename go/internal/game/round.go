package game

// generateRound picks an unused entry and lays it out on a size x size grid
// with one target card at a random position. Once every entry has been
// shown the used set starts over.
func (m *Machine) generateRound(size int) {
	n := m.table.Len()
	if len(m.used) >= n {
		clear(m.used)
	}

	available := make([]int, 0, n-len(m.used))
	for i := 0; i < n; i++ {
		if _, ok := m.used[i]; !ok {
			available = append(available, i)
		}
	}

	idx := available[m.rng.Intn(len(available))]
	m.used[idx] = struct{}{}
	entry := m.table.At(idx)

	count := size * size
	cards := make([]string, count)
	for i := range cards {
		cards[i] = entry.Normal
	}
	m.oddIndex = m.rng.Intn(count)
	cards[m.oddIndex] = entry.Target
	m.cards = cards
}
