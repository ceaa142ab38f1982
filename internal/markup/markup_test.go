package markup

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingPage = `<html><body>
<div id="nav"><a href="/outside.xls">outside</a></div>
<div id="content-core">
  <h2>Preço Máximo ao Consumidor</h2>
  <p>Lista vigente a partir de março/24</p>
  <p><a href="docs/xls_conformidade_site.xls#top">XLS <b>março</b></a></p>
  <script>var x = "<a href='nope'>";</script>
  <strong>PMVG</strong>
  <a href="mailto:cmed@example.gov">contato</a>
  <a href="#anchor">topo</a>
</div>
</body></html>`

func TestParseRegionAndOrder(t *testing.T) {
	base, err := url.Parse("https://example.gov/listas/")
	require.NoError(t, err)

	nodes, err := Parse(strings.NewReader(listingPage), WithBaseURL(base))
	require.NoError(t, err)

	var kinds []string
	for _, n := range nodes {
		kinds = append(kinds, n.Kind.String()+":"+n.Text)
	}
	assert.Equal(t, []string{
		"heading:Preço Máximo ao Consumidor",
		"text:Preço Máximo ao Consumidor",
		"text:Lista vigente a partir de março/24",
		"anchor:XLS março",
		"text:XLS",
		"text:março",
		"heading:PMVG",
		"text:PMVG",
		"text:contato",
		"text:topo",
	}, kinds)

	anchor := nodes[3]
	assert.Equal(t, "https://example.gov/listas/docs/xls_conformidade_site.xls", anchor.Href)
	assert.Equal(t, "a", anchor.Tag)
}

func TestParseFallsBackToWholeDocument(t *testing.T) {
	page := `<html><body><h3>PF</h3><a href="https://example.gov/a.xls">XLS</a></body></html>`

	nodes, err := Parse(strings.NewReader(page))
	require.NoError(t, err)

	var anchors int
	for _, n := range nodes {
		if n.Kind == KindAnchor {
			anchors++
			assert.Equal(t, "https://example.gov/a.xls", n.Href)
		}
	}
	assert.Equal(t, 1, anchors)
	assert.Equal(t, KindHeading, nodes[0].Kind)
}

func TestParseCustomHeadings(t *testing.T) {
	page := `<div id="content-core"><h2>PMC</h2><h6>PF</h6></div>`

	nodes, err := Parse(strings.NewReader(page), WithHeadingTags("h6"))
	require.NoError(t, err)

	var headings []string
	for _, n := range nodes {
		if n.Kind == KindHeading {
			headings = append(headings, n.Text)
		}
	}
	assert.Equal(t, []string{"PF"}, headings)
}

func TestAncestorContext(t *testing.T) {
	page := `<div id="content-core"><div><p>Lista de preços publicada em abril/2023 <span><a href="/x.xls">XLS</a></span></p></div></div>`

	nodes, err := Parse(strings.NewReader(page))
	require.NoError(t, err)

	var anchor Node
	for _, n := range nodes {
		if n.Kind == KindAnchor {
			anchor = n
		}
	}
	assert.Equal(t, "Lista de preços publicada em abril/2023 XLS", anchor.Context)

	t.Run("climb depth limits context", func(t *testing.T) {
		nodes, err := Parse(strings.NewReader(page), WithAncestorContext(1, 200))
		require.NoError(t, err)
		for _, n := range nodes {
			if n.Kind == KindAnchor {
				assert.Equal(t, "XLS", n.Context)
			}
		}
	})

	t.Run("stops once long enough", func(t *testing.T) {
		nodes, err := Parse(strings.NewReader(page), WithAncestorContext(5, 2))
		require.NoError(t, err)
		for _, n := range nodes {
			if n.Kind == KindAnchor {
				assert.Equal(t, "XLS", n.Context)
			}
		}
	})
}
