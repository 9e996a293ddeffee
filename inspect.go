package blocklist

import "github.com/pkg/errors"

// BlockStats describes a single block of the chain.
type BlockStats struct {
	Capacity int
	Stored   int
}

// Blocks returns stats of all the blocks in chain order, including spare ones.
func (l *List) Blocks() []BlockStats {
	var stats []BlockStats
	for block := l.head; block != nil; block = block.Next {
		stats = append(stats, BlockStats{
			Capacity: block.Capacity(),
			Stored:   block.NStored,
		})
	}
	return stats
}

// Verify checks that blocks before the tail are full, blocks after the tail are empty,
// links are consistent and the length matches the number of stored elements.
func (l *List) Verify() error {
	if l.head == nil {
		return errors.WithStack(ErrReleased)
	}
	if l.head.Prev != nil {
		return errors.New("head block has previous block")
	}

	var total int
	var tailFound bool
	for i, block := 0, l.head; block != nil; i, block = i+1, block.Next {
		if block.Next != nil && block.Next.Prev != block {
			return errors.Errorf("broken link between blocks %d and %d", i, i+1)
		}
		if block.NStored < 0 || block.NStored > block.Capacity() {
			return errors.Errorf("block %d stores %d elements, capacity: %d", i, block.NStored, block.Capacity())
		}

		switch {
		case tailFound:
			if block.NStored != 0 {
				return errors.Errorf("spare block %d is not empty, stored: %d", i, block.NStored)
			}
		case block == l.tail:
			tailFound = true
			if block.NStored == 0 && block != l.head {
				return errors.Errorf("tail block %d is empty", i)
			}
			for j := block.NStored; j < block.Capacity(); j++ {
				if block.Slots[j] != nil {
					return errors.Errorf("free slot %d of tail block %d is occupied", j, i)
				}
			}
		default:
			if !block.Full() {
				return errors.Errorf("block %d is not packed, stored: %d, capacity: %d", i, block.NStored, block.Capacity())
			}
		}
		total += block.NStored
	}

	if !tailFound {
		return errors.New("tail block is not in the chain")
	}
	if total != l.length {
		return errors.Errorf("length mismatch, length: %d, stored: %d", l.length, total)
	}
	return nil
}
