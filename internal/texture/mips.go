package texture

// MaxMipExtent is the largest extent accepted for single-job invocations.
const MaxMipExtent = 16384

// MipCount returns the length of the full mip chain for a w×h surface,
// counting level 0 and the terminal 1×1 level.
func MipCount(w, h int) int {
	w, h = clampAxis(w), clampAxis(h)
	count := 1
	for w > 1 || h > 1 {
		w, h = halve(w), halve(h)
		count++
	}
	return count
}

// MipExtent returns the dimensions of the given level of a w×h chain.
func MipExtent(w, h, level int) (int, int) {
	w, h = clampAxis(w), clampAxis(h)
	for i := 0; i < level; i++ {
		w, h = halve(w), halve(h)
	}
	return w, h
}

// BlockSize returns the bytes per 4×4 block for format.
func BlockSize(format BlockFormat) int {
	switch format {
	case BC1, BC4:
		return 8
	default:
		return 16
	}
}

// LegacyLinearSize returns the byte size of the top-level surface as written
// into dwPitchOrLinearSize by reference writers.
func LegacyLinearSize(w, h int, format BlockFormat) uint32 {
	wBlocks := (w + 3) / 4
	if wBlocks < 1 {
		wBlocks = 1
	}
	hBlocks := (h + 3) / 4
	if hBlocks < 1 {
		hBlocks = 1
	}
	return uint32(wBlocks * hBlocks * BlockSize(format))
}

// FitExtent returns the dimensions of a w×h surface scaled down so that its
// larger axis equals maxExtent, preserving aspect ratio. Surfaces already
// within bounds are returned unchanged.
func FitExtent(w, h, maxExtent int) (int, int) {
	if maxExtent <= 0 || (w <= maxExtent && h <= maxExtent) {
		return w, h
	}
	if w >= h {
		return maxExtent, clampAxis(h * maxExtent / w)
	}
	return clampAxis(w * maxExtent / h), maxExtent
}

func halve(v int) int {
	if v > 1 {
		return v / 2
	}
	return 1
}

func clampAxis(v int) int {
	if v < 1 {
		return 1
	}
	return v
}
