package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/sonospy/movetags/conf"
)

func TestSplit_MultiValueFanout(t *testing.T) {
	mv := Split("Rock\nPop", "", conf.IncludeAll, conf.TheRemove, false)
	assert.Equal(t, []string{"Rock", "Pop"}, mv.List)
	assert.Equal(t, "Rock\nPop", mv.Filtered)
}

func TestSplit_CollapsesRedundantSeparators(t *testing.T) {
	mv := Split("Rock\n\n\nPop\n", "", conf.IncludeAll, conf.TheRemove, false)
	assert.Equal(t, []string{"Rock", "Pop"}, mv.List)
}

func TestSplit_SecondarySeparator(t *testing.T) {
	mv := Split("Rock; Pop", ";", conf.IncludeAll, conf.TheRemove, false)
	assert.Equal(t, []string{"Rock", "Pop"}, mv.List)
}

func TestSplit_InclusionFirst(t *testing.T) {
	mv := Split("A\nB\nC", "", conf.IncludeFirst, conf.TheRemove, false)
	assert.Equal(t, []string{"A"}, mv.List)
}

func TestSplit_InclusionLast(t *testing.T) {
	mv := Split("A\nB\nC", "", conf.IncludeLast, conf.TheRemove, false)
	assert.Equal(t, []string{"C"}, mv.List)
}

func TestSplit_TheRemove(t *testing.T) {
	mv := Split("The Band", "", conf.IncludeAll, conf.TheRemove, true)
	assert.Equal(t, []string{"Band"}, mv.List)
}

func TestSplit_TheAfter(t *testing.T) {
	mv := Split("The Band", "", conf.IncludeAll, conf.TheAfter, true)
	assert.Equal(t, []string{"Band, The"}, mv.List)
}

func TestSplit_TheTheIsNeverRewritten(t *testing.T) {
	mv := Split("The The", "", conf.IncludeAll, conf.TheRemove, true)
	assert.Equal(t, []string{"The The"}, mv.List)
}

func TestSplit_DropsControlCharsAndEmpties(t *testing.T) {
	mv := Split("Rock\x01\n\nPop", "", conf.IncludeAll, conf.TheRemove, false)
	assert.Equal(t, []string{"Rock", "Pop"}, mv.List)
}

func TestYear_PlainDigits(t *testing.T) {
	o1, ok := Year("2001")
	assert.True(t, ok)
	o2, _ := Year("2002")
	assert.Greater(t, o2, o1)
}

func TestYear_EmbeddedFourDigits(t *testing.T) {
	_, ok := Year("released in 1999 remastered")
	assert.True(t, ok)
}

func TestYear_Unparseable(t *testing.T) {
	_, ok := Year("unknown")
	assert.False(t, ok)
}

func TestTruncateNumber(t *testing.T) {
	assert.Equal(t, "", TruncateNumber(""))
	assert.Equal(t, "128", TruncateNumber("128kbps"))
	assert.Equal(t, "", TruncateNumber("kbps"))
}

func TestAdjustTracknumber(t *testing.T) {
	assert.Equal(t, "3", AdjustTracknumber("3/12"))
	assert.Equal(t, "3", AdjustTracknumber("03"))
	assert.Equal(t, "", AdjustTracknumber(""))
}
