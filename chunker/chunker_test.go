package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const aanbestedingText = `De aanbestedende dienst kan verlangen dat een inschrijver een UEA overlegt. Het UEA moet volledig worden ingevuld!
Is het uittreksel recent? De inschrijver dient een recent uittreksel uit het handelsregister te overleggen, niet ouder dan zes maanden.
Het plan van aanpak beschrijft de methodiek, planning en kwaliteitsbewaking.`

func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func TestSentences(t *testing.T) {
	got := Sentences("Eerste zin. Tweede zin!  \n Derde zin?  ... . Laatste zonder punt")
	assert.Equal(t, []string{
		"Eerste zin.",
		"Tweede zin!",
		"Derde zin?",
		"Laatste zonder punt",
	}, got)
}

func TestChunk_RoundTrip(t *testing.T) {
	for _, maxTokens := range []int{5, 12, 20, 40, 1000} {
		chunks := Chunk(aanbestedingText, maxTokens)
		require.NotEmpty(t, chunks)
		assert.Equal(t, normalize(aanbestedingText), normalize(strings.Join(chunks, " ")), "maxTokens=%d", maxTokens)
	}
}

func TestChunk_RespectsBudget(t *testing.T) {
	maxTokens := 20
	for _, chunk := range Chunk(aanbestedingText, maxTokens) {
		assert.NotEmpty(t, strings.TrimSpace(chunk))
		sentences := Sentences(chunk)
		if len(sentences) > 1 {
			assert.LessOrEqual(t, EstimateTokens(chunk), float64(maxTokens)*1.1, chunk)
		}
	}
}

func TestChunk_OversizeSentenceStandsAlone(t *testing.T) {
	long := strings.Repeat("woord ", 50) + "einde."
	chunks := Chunk("Kort. "+long+" Ook kort.", 10)

	require.Len(t, chunks, 3)
	assert.Equal(t, "Kort.", chunks[0])
	assert.Equal(t, normalize(long), chunks[1])
	assert.Equal(t, "Ook kort.", chunks[2])
}

func TestChunk_EmptyInput(t *testing.T) {
	assert.Empty(t, Chunk("", 100))
	assert.Empty(t, Chunk("   \n\t ", 100))
	assert.Empty(t, Chunk("...!?", 100))
}

func TestChunk_SingleChunkWhenItFits(t *testing.T) {
	chunks := Chunk("Een. Twee. Drie.", 100)
	assert.Equal(t, []string{"Een. Twee. Drie."}, chunks)
}
