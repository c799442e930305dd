package classify

import "strconv"

// extractPadCount scans markup with the ordered pad patterns and returns the
// largest matched number inside the plausible range, or zero when nothing in
// range matched. Out-of-range numbers never surface even when the pattern
// text matched.
func (c *compiled) extractPadCount(markup string) int {
	best := 0
	for _, re := range c.padPatterns {
		for _, match := range re.FindAllStringSubmatch(markup, -1) {
			for _, group := range match[1:] {
				n, err := strconv.Atoi(group)
				if err != nil {
					continue
				}
				if n < c.minPads || n > c.maxPads {
					continue
				}
				if n > best {
					best = n
				}
			}
		}
	}
	return best
}

// matchBooking returns the literal substring that triggered a booking-system
// match, or empty when none matched.
func (c *compiled) matchBooking(markup string) string {
	return c.bookingRe.FindString(markup)
}
