package detail

import (
	"math"

	"github.com/joeblew999/plat-campus/internal/campus"
)

// MaxStars is the length of every star strip.
const MaxStars = 5

// StarStrip returns MaxStars flags; star i (1-based) is filled iff i <= n.
func StarStrip(n int) []bool {
	stars := make([]bool, MaxStars)
	for i := 1; i <= MaxStars; i++ {
		stars[i-1] = i <= n
	}
	return stars
}

// AverageRating averages the ratings above zero and returns the average and
// the number of filled stars, floor(average). Unrated comments count in
// neither the sum nor the count.
func AverageRating(comments []campus.Comment) (avg float64, filled int) {
	total, count := 0, 0
	for _, c := range comments {
		if c.Rating.Rated() {
			total += int(c.Rating)
			count++
		}
	}
	if count == 0 {
		return 0, 0
	}
	avg = float64(total) / float64(count)
	return avg, int(math.Floor(avg))
}

// CollectImages flattens image references in comment order, then image order.
func CollectImages(comments []campus.Comment) []campus.ImageRef {
	var refs []campus.ImageRef
	for _, c := range comments {
		refs = append(refs, c.Images...)
	}
	return refs
}

// CollectIcons returns the embedded icons deduplicated by id, first
// occurrence wins. Icons without an id are dropped.
func CollectIcons(comments []campus.Comment) []campus.AccessibilityIcon {
	seen := make(map[campus.ID]struct{})
	var icons []campus.AccessibilityIcon
	for _, c := range comments {
		for _, icon := range c.Icons {
			if icon.ID == "" {
				continue
			}
			if _, ok := seen[icon.ID]; ok {
				continue
			}
			seen[icon.ID] = struct{}{}
			icons = append(icons, icon)
		}
	}
	return icons
}
