package gel

// PolarityCutoff is the mean intensity above which a gel is taken to be
// photographed on a light background.
const PolarityCutoff = 127

// Mean returns the mean intensity over the whole image.
func (m *LaneImage) Mean() float64 {
	if len(m.gray.Pix) == 0 {
		return 0
	}

	var sum uint64
	for _, v := range m.gray.Pix {
		sum += uint64(v)
	}

	return float64(sum) / float64(len(m.gray.Pix))
}

// Normalize returns a copy of m in which bands are brighter than the
// background, inverting every pixel (255-v) when the mean exceeds
// PolarityCutoff. m itself is never modified.
func Normalize(m *LaneImage) (out *LaneImage, inverted bool) {
	out = m.clone()
	if m.Mean() <= PolarityCutoff {
		return out, false
	}

	for i, v := range out.gray.Pix {
		out.gray.Pix[i] = 255 - v
	}

	return out, true
}
