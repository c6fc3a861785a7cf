package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articleHTML = `<html><head><title>Post</title><style>.x{color:red}</style></head>
<body>
<nav>Home About Contact</nav>
<header>Site header</header>
<article>
<h1>Understanding write-ahead logs</h1>
<p>A write-ahead log records every change before it is applied to the main data files, so a crash never leaves the database in a half-written state.</p>
<p>SQLite in WAL mode appends pages to a separate file and readers keep seeing a consistent snapshot while a writer proceeds.</p>
<p>Checkpoints copy committed pages back into the database file and let the log be reused from the beginning.</p>
</article>
<script>trackEverything()</script>
<footer>Copyright footer</footer>
</body></html>`

func TestExtract(t *testing.T) {
	ext, err := Extract(articleHTML, "https://example.com/wal")
	require.NoError(t, err)
	assert.Contains(t, ext.Text, "write-ahead log records every change")
	assert.Contains(t, ext.Text, "Checkpoints copy committed pages")
	for _, junk := range []string{"trackEverything", "Copyright footer", "Home About Contact", "color:red"} {
		assert.NotContains(t, ext.Text, junk)
	}
	assert.NotContains(t, ext.Text, "  ", "whitespace is normalized")
	assert.Equal(t, len(strings.Fields(ext.Text)), ext.WordCount)
}

func TestExtractEmpty(t *testing.T) {
	ext, err := Extract("", "")
	require.NoError(t, err)
	assert.Equal(t, "", ext.Text)
	assert.Equal(t, 0, ext.WordCount)
}

func TestExtractSummary(t *testing.T) {
	ext := ExtractSummary(`<p>Fast <b>&amp;</b> safe</p><p>second<br>line</p>`)
	assert.Equal(t, "Fast & safe second line", ext.Text)
	assert.Equal(t, 5, ext.WordCount)
}
