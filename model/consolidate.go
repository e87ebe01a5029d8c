/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE.md', which is part of this source code package.
 */

package model

import "sort"

// Consolidate merges duplicate font instances and deduplicates
// page-font/glyph entries (spec.md §4.8). It is idempotent: running it a
// second time on its own output is a no-op (spec.md §8).
func Consolidate(doc *Document, descriptors map[int32]*FontDescriptor) {
	// A document that has already been consolidated numbers its page fonts
	// by position in doc.Fonts rather than by DVI font number.
	var prior map[int]string
	if len(doc.Fonts) > 0 {
		prior = make(map[int]string, len(doc.Fonts))
		for _, f := range doc.Fonts {
			prior[f.FontNum] = f.FontName
		}
	}
	doc.Fonts = doc.Fonts[:0]

	uniqueNames := make([]string, 0, len(descriptors))
	seen := make(map[string]bool, len(descriptors))
	oldToNew := make(map[int]int)

	// Build uniqueFontNames[] in first-encounter order, walking
	// descriptors by ascending DVI font number so that "first
	// encounter" is deterministic (spec.md §8 testable property 7).
	nums := make([]int32, 0, len(descriptors))
	for n := range descriptors {
		nums = append(nums, n)
	}
	sort.Slice(nums, func(i, j int) bool { return nums[i] < nums[j] })

	for _, n := range nums {
		fd := descriptors[n]
		if !seen[fd.FontName] {
			seen[fd.FontName] = true
			uniqueNames = append(uniqueNames, fd.FontName)
			doc.Fonts = append(doc.Fonts, Font{
				FontNum:      len(doc.Fonts),
				FontName:     fd.FontName,
				FontPath:     fd.DirPath,
				FontFeatures: fd.Features,
			})
		}
	}
	nameToNew := make(map[string]int, len(uniqueNames))
	for _, f := range doc.Fonts {
		nameToNew[f.FontName] = f.FontNum
	}
	if prior != nil {
		for num, name := range prior {
			if nn, ok := nameToNew[name]; ok {
				oldToNew[num] = nn
			}
		}
	} else {
		for _, n := range nums {
			oldToNew[int(n)] = nameToNew[descriptors[n].FontName]
		}
	}

	for pi := range doc.Pages {
		consolidatePage(&doc.Pages[pi], oldToNew)
	}
}

func consolidatePage(p *Page, oldToNew map[int]int) {
	byNewNum := make(map[int]*PageFont)
	var order []int
	for _, pf := range p.PageFonts {
		newNum, ok := oldToNew[pf.FontNum]
		if !ok {
			newNum = pf.FontNum
		}
		existing, ok := byNewNum[newNum]
		if !ok {
			merged := PageFont{FontNum: newNum}
			byNewNum[newNum] = &merged
			order = append(order, newNum)
			existing = &merged
		}
		existing.Glyphs = append(existing.Glyphs, pf.Glyphs...)
	}

	out := make([]PageFont, 0, len(byNewNum))
	sort.Ints(order)
	dedup := make(map[int]bool, len(order))
	for _, n := range order {
		if dedup[n] {
			continue
		}
		dedup[n] = true
		pf := byNewNum[n]
		consolidateGlyphs(pf)
		out = append(out, *pf)
	}
	p.PageFonts = out
}

func consolidateGlyphs(pf *PageFont) {
	byIndex := make(map[uint32]*Glyph)
	var order []uint32
	for _, g := range pf.Glyphs {
		existing, ok := byIndex[g.GlyphIndex]
		if !ok {
			merged := Glyph{GlyphIndex: g.GlyphIndex}
			byIndex[g.GlyphIndex] = &merged
			order = append(order, g.GlyphIndex)
			existing = &merged
		}
		existing.GlyphSizes = mergeSizes(existing.GlyphSizes, g.GlyphSizes)
	}

	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	out := make([]Glyph, 0, len(byIndex))
	seen := make(map[uint32]bool, len(order))
	for _, idx := range order {
		if seen[idx] {
			continue
		}
		seen[idx] = true
		out = append(out, *byIndex[idx])
	}
	pf.Glyphs = out
}

// mergeSizes concatenates placements of sizes that already appear in dst,
// and appends any new size encountered in src, preserving stream order
// within each size and leaving placements neither deduplicated nor
// reordered (spec.md §4.8).
func mergeSizes(dst, src []GlyphSize) []GlyphSize {
	index := make(map[int32]int, len(dst))
	for i, sz := range dst {
		index[sz.Sz] = i
	}
	for _, sz := range src {
		if i, ok := index[sz.Sz]; ok {
			dst[i].GlyphPlacements = append(dst[i].GlyphPlacements, sz.GlyphPlacements...)
			continue
		}
		index[sz.Sz] = len(dst)
		dst = append(dst, sz)
	}
	return dst
}
