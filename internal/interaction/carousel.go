package interaction

import (
	"fmt"

	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/motion"
)

// Carousel is the index of the item currently shown, advanced by swipes
// and wrapping at both ends.
type Carousel struct {
	n   int
	idx int
}

// NewCarousel returns a carousel over n slides, starting at 0.
func NewCarousel(n int) (*Carousel, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: carousel needs at least one slide, got %d", config.ErrConfiguration, n)
	}
	return &Carousel{n: n}, nil
}

// Apply moves one slide in the direction of nav and returns the new index.
func (c *Carousel) Apply(nav motion.Nav) int {
	switch nav {
	case motion.Next:
		c.idx = (c.idx + 1) % c.n
	case motion.Previous:
		c.idx = (c.idx - 1 + c.n) % c.n
	}
	return c.idx
}

// Index returns the current slide.
func (c *Carousel) Index() int { return c.idx }

// Len returns the number of slides.
func (c *Carousel) Len() int { return c.n }
