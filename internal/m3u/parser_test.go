package m3u

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse_ValidPlaylist(t *testing.T) {
	input := `#EXTM3U
#EXTINF:-1 tvg-id="IRIB1.ir" group-title="IR" tvg-language="fas" tvg-quality="720p",IRIB 1
http://stream.example.com/12345

#EXTINF:-1 tvg-id="Manoto.uk" group-title="UK, IR" tvg-language="fas;eng" tvg-quality="",Manoto
#EXTVLCOPT:http-user-agent=Mozilla/5.0
#EXTVLCOPT:http-referrer=http://manoto.example.com/
http://stream.example.com/12346
`
	channels, err := Parse([]byte(input))
	require.NoError(t, err)
	require.Len(t, channels, 2)

	require.Equal(t, "IRIB 1", channels[0].Name)
	require.Equal(t, "http://stream.example.com/12345", channels[0].URL)
	require.Equal(t, "IRIB1.ir", channels[0].TVGID)
	require.Equal(t, "IR", channels[0].Group)
	require.Equal(t, "fas", channels[0].Language)
	require.Equal(t, "720p", channels[0].Quality)
	require.Empty(t, channels[0].UserAgent)
	require.Empty(t, channels[0].Referrer)

	require.Equal(t, "Manoto", channels[1].Name)
	require.Equal(t, "http://stream.example.com/12346", channels[1].URL)
	require.Equal(t, "UK, IR", channels[1].Group)
	require.Equal(t, "fas;eng", channels[1].Language)
	require.Empty(t, channels[1].Quality)
	require.Equal(t, "Mozilla/5.0", channels[1].UserAgent)
	require.Equal(t, "http://manoto.example.com/", channels[1].Referrer)
}

func TestParse_ExtractAttributes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Channel
	}{
		{
			name: "all attributes",
			input: `#EXTM3U
#EXTINF:-1 tvg-id="GEM.ir" group-title="AF" tvg-language="prs" tvg-quality="1080p",GEM TV
http://stream.example.com/1`,
			expected: Channel{
				Name:     "GEM TV",
				URL:      "http://stream.example.com/1",
				TVGID:    "GEM.ir",
				Group:    "AF",
				Language: "prs",
				Quality:  "1080p",
			},
		},
		{
			name: "missing quality",
			input: `#EXTM3U
#EXTINF:-1 tvg-id="CNN.us" group-title="News",CNN
http://stream.example.com/cnn`,
			expected: Channel{
				Name:  "CNN",
				URL:   "http://stream.example.com/cnn",
				TVGID: "CNN.us",
				Group: "News",
			},
		},
		{
			name: "no attributes",
			input: `#EXTM3U
#EXTINF:-1,Local Channel
http://stream.example.com/local`,
			expected: Channel{
				Name: "Local Channel",
				URL:  "http://stream.example.com/local",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			channels, err := Parse([]byte(tt.input))
			require.NoError(t, err)
			require.Len(t, channels, 1)

			got := channels[0]
			got.Original = ""
			require.Equal(t, tt.expected, got)
		})
	}
}

func TestParse_CommaInsideAttribute(t *testing.T) {
	input := `#EXTM3U
#EXTINF:-1 tvg-id="A" group-title="IR, AF, TJ",Persian Channel, Live
http://stream.example.com/1`

	channels, err := Parse([]byte(input))
	require.NoError(t, err)
	require.Len(t, channels, 1)
	require.Equal(t, "IR, AF, TJ", channels[0].Group)
	require.Equal(t, "Persian Channel, Live", channels[0].Name)
}

func TestParse_EmptyLines(t *testing.T) {
	input := `#EXTM3U

#EXTINF:-1 tvg-id="Channel1",Channel 1

http://stream.example.com/1


#EXTINF:-1 tvg-id="Channel2",Channel 2

http://stream.example.com/2

`
	channels, err := Parse([]byte(input))
	require.NoError(t, err)
	require.Len(t, channels, 2)
	require.Equal(t, "Channel 1", channels[0].Name)
	require.Equal(t, "Channel 2", channels[1].Name)
}

func TestParse_NoHeader(t *testing.T) {
	input := `#EXTINF:-1 tvg-id="Channel1",Channel 1
http://stream.example.com/1`

	channels, err := Parse([]byte(input))
	require.NoError(t, err)
	require.Len(t, channels, 1)
	require.Equal(t, "Channel 1", channels[0].Name)
}

func TestParse_HeaderOnly(t *testing.T) {
	channels, err := Parse([]byte("#EXTM3U\n"))
	require.NoError(t, err)
	require.Empty(t, channels)
}

func TestParse_ErrIncompleteChannel(t *testing.T) {
	input := `#EXTM3U
#EXTINF:-1 tvg-id="Channel1",Channel 1
http://stream.example.com/1
#EXTINF:-1 tvg-id="Channel2",Channel 2`

	_, err := Parse([]byte(input))
	require.ErrorIs(t, err, ErrIncompleteChannel)
}

func TestParse_ErrOrphanedChannel(t *testing.T) {
	input := `#EXTM3U
#EXTINF:-1 tvg-id="Channel1",Channel 1
#EXTINF:-1 tvg-id="Channel2",Channel 2
http://stream.example.com/2`

	_, err := Parse([]byte(input))
	require.ErrorIs(t, err, ErrOrphanedChannel)
}

func TestParse_UnknownOptionIgnored(t *testing.T) {
	input := `#EXTM3U
#EXTINF:-1 tvg-id="A",A
#EXTVLCOPT:network-caching=1000
http://stream.example.com/a`

	channels, err := Parse([]byte(input))
	require.NoError(t, err)
	require.Len(t, channels, 1)
	require.Empty(t, channels[0].UserAgent)
	require.Empty(t, channels[0].Referrer)
}

func TestParse_SpecialCharacters(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name: "persian script",
			input: `#EXTM3U
#EXTINF:-1 tvg-id="IRINN.ir",شبکه خبر
http://stream.example.com/1`,
			expected: "شبکه خبر",
		},
		{
			name: "ampersand in name",
			input: `#EXTM3U
#EXTINF:-1 tvg-id="AE.us",A&E Network
http://stream.example.com/1`,
			expected: "A&E Network",
		},
		{
			name: "parentheses in name",
			input: `#EXTM3U
#EXTINF:-1 tvg-id="ESPN.us",ESPN (HD)
http://stream.example.com/1`,
			expected: "ESPN (HD)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			channels, err := Parse([]byte(tt.input))
			require.NoError(t, err)
			require.Len(t, channels, 1)
			require.Equal(t, tt.expected, channels[0].Name)
		})
	}
}

func TestExtractAttribute(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		attr     string
		expected string
	}{
		{
			name:     "extract tvg-id",
			line:     `#EXTINF:-1 tvg-id="IRIB1.ir" group-title="IR"`,
			attr:     "tvg-id",
			expected: "IRIB1.ir",
		},
		{
			name:     "extract group-title",
			line:     `#EXTINF:-1 tvg-id="IRIB1.ir" group-title="IR, AF"`,
			attr:     "group-title",
			expected: "IR, AF",
		},
		{
			name:     "missing attribute",
			line:     `#EXTINF:-1 tvg-id="IRIB1.ir"`,
			attr:     "tvg-quality",
			expected: "",
		},
		{
			name:     "empty attribute value",
			line:     `#EXTINF:-1 tvg-quality=""`,
			attr:     "tvg-quality",
			expected: "",
		},
		{
			name:     "attribute without precompiled pattern",
			line:     `#EXTINF:-1 tvg-logo="http://logo.example.com/a.png"`,
			attr:     "tvg-logo",
			expected: "http://logo.example.com/a.png",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := extractAttribute(tt.line, tt.attr)
			require.Equal(t, tt.expected, result)
		})
	}
}
