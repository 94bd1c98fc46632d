package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingArticleHTML = `<html><body>
<h1>Best BBQ in Houston</h1>
<p>Intro paragraph.</p>
<h2>Our Picks</h2>
<p>We visited twenty spots.</p>
<h3>Truth BBQ</h3>
<p>Brisket worth the line. 4.8 (2.1k reviews)</p>
<h4>What to order</h4>
<ul><li>Brisket</li><li>Tallow corn bread</li></ul>
<h3>The Pit Room</h3>
<p>Montrose staple.</p>
<a href="https://pitroombbq.com">Website</a>
<a href="#top">Back to top</a>
<h2>Honorable Mentions</h2>
<p>Also good.</p>
</body></html>`

func TestSegmentOrderAndBoundaries(t *testing.T) {
	seg := NewPageSectionSegmenter()
	sections, order := seg.Segment(docFromHTML(t, listingArticleHTML))

	assert.Equal(t, []string{"Our Picks", "Truth BBQ", "What to order", "The Pit Room", "Honorable Mentions"}, order)

	// h3 section runs through the h4 inside it but stops at the next h3.
	truth := sections["Truth BBQ"]
	assert.Contains(t, truth.Text, "Brisket worth the line")
	assert.Contains(t, truth.Text, "What to order")
	assert.NotContains(t, truth.Text, "Montrose staple")
	require.Len(t, truth.Lists, 1)
	assert.Equal(t, []string{"Brisket", "Tallow corn bread"}, truth.Lists[0])

	// h2 section spans its h3 children and stops at the next h2.
	picks := sections["Our Picks"]
	assert.Contains(t, picks.Text, "Truth BBQ")
	assert.Contains(t, picks.Text, "The Pit Room")
	assert.NotContains(t, picks.Text, "Also good")

	pit := sections["The Pit Room"]
	require.Len(t, pit.Links, 1, "fragment links are dropped")
	assert.Equal(t, "https://pitroombbq.com", pit.Links[0].URL)
}

func TestSegmentEmptyAndDuplicateHeadings(t *testing.T) {
	html := `<h2></h2><h2>Menu</h2><p>first</p><h2>Menu</h2><p>second</p>`
	seg := NewPageSectionSegmenter()
	sections, order := seg.Segment(docFromHTML(t, html))
	assert.Equal(t, []string{"Menu"}, order)
	assert.Contains(t, sections["Menu"].Text, "first")
}

func TestSegmentNoHeadings(t *testing.T) {
	seg := NewPageSectionSegmenter()
	sections, order := seg.Segment(docFromHTML(t, `<p>No structure at all.</p>`))
	assert.Empty(t, sections)
	assert.Empty(t, order)
}
