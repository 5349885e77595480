// go-rfidbox
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-rfidbox.
//
// go-rfidbox is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-rfidbox is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-rfidbox; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package rfidbox

// MIFARE Classic 1K memory structure
const (
	BlockSize       = 16 // bytes per block
	SectorSize      = 4  // blocks per sector, trailer included
	TotalBlocks     = 64
	DataBlockCount  = 45
	blocksPerSector = SectorSize - 1
)

// dataBlocks is every block of sectors 1-15 except the sector trailers.
// Sector 0 holds the manufacturer block and is never used for payload.
var dataBlocks = [DataBlockCount]int{
	4, 5, 6,
	8, 9, 10,
	12, 13, 14,
	16, 17, 18,
	20, 21, 22,
	24, 25, 26,
	28, 29, 30,
	32, 33, 34,
	36, 37, 38,
	40, 41, 42,
	44, 45, 46,
	48, 49, 50,
	52, 53, 54,
	56, 57, 58,
	60, 61, 62,
}

// Layout is the block layout table: the ordered data blocks of a 1K card.
// The zero value is not usable, use DefaultLayout.
type Layout struct {
	blocks [DataBlockCount]int
}

// DefaultLayout returns the 45-block layout of a MIFARE Classic 1K card.
func DefaultLayout() Layout {
	return Layout{blocks: dataBlocks}
}

// DataBlocks returns a copy of the ordered data block indices.
func (l Layout) DataBlocks() []int {
	out := make([]int, len(l.blocks))
	copy(out, l.blocks[:])
	return out
}

// Len returns the number of data blocks.
func (l Layout) Len() int {
	return len(l.blocks)
}

// Block returns the i-th data block.
func (l Layout) Block(i int) int {
	return l.blocks[i]
}

// Capacity returns the number of payload bytes the layout can hold.
func (l Layout) Capacity() int {
	return len(l.blocks) * BlockSize
}

// Sectors returns the distinct sectors covered by the layout, in order.
func (l Layout) Sectors() []int {
	sectors := make([]int, 0, len(l.blocks)/blocksPerSector)
	last := -1
	for _, b := range l.blocks {
		if s := SectorOf(b); s != last {
			sectors = append(sectors, s)
			last = s
		}
	}
	return sectors
}

// NextBlock returns the data block following current. It wraps to the first
// block when current is the last block, is not in the table, or is not found
// within searchLimit probes. The result is always a member of the table.
func (l Layout) NextBlock(current, searchLimit int) int {
	n := len(l.blocks)
	i := 0
	for i < n && i < searchLimit && l.blocks[i] != current {
		i++
	}
	if i >= n-1 || i >= searchLimit {
		return l.blocks[0]
	}
	return l.blocks[i+1]
}

// Contains reports whether block is a data block of the layout.
func (l Layout) Contains(block int) bool {
	for _, b := range l.blocks {
		if b == block {
			return true
		}
	}
	return false
}

// SectorOf returns the sector a block belongs to.
func SectorOf(block int) int {
	return block / SectorSize
}

// TrailerOf returns the trailer block of a sector.
func TrailerOf(sector int) int {
	return sector*SectorSize + SectorSize - 1
}

// IsTrailer reports whether block is a sector trailer.
func IsTrailer(block int) bool {
	return block%SectorSize == SectorSize-1
}
