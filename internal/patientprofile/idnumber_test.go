package patientprofile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidIDNumber18(t *testing.T) {
	assert.True(t, ValidIDNumber("11010519491231002X"))
	assert.True(t, ValidIDNumber("440301198506071238"))
	assert.True(t, ValidIDNumber("320502199001010047"))
}

func TestValidIDNumberLowercaseX(t *testing.T) {
	assert.True(t, ValidIDNumber("11010519491231002x"))
}

func TestInvalidChecksum(t *testing.T) {
	assert.False(t, ValidIDNumber("110105194912310021"))
	assert.False(t, ValidIDNumber("440301198506071230"))
}

func TestValidIDNumber15(t *testing.T) {
	assert.True(t, ValidIDNumber("110105491231002"))
	assert.False(t, ValidIDNumber("11010549123100X"))
}

func TestInvalidBirthDate18(t *testing.T) {
	assert.False(t, ValidIDNumber("110105194913310021")) // month 13
	assert.False(t, ValidIDNumber("110105194900310021")) // month 00
	assert.False(t, ValidIDNumber("110105194912000021")) // day 00
	assert.False(t, ValidIDNumber("110105194912320021")) // day 32
	assert.False(t, ValidIDNumber("110105194902300021")) // Feb 30
	assert.False(t, ValidIDNumber("110105194904310021")) // Apr 31
}

func TestInvalidBirthDate15(t *testing.T) {
	assert.False(t, ValidIDNumber("110105491331002"))
	assert.False(t, ValidIDNumber("110105490230002"))
}

func TestInvalidShapes(t *testing.T) {
	assert.False(t, ValidIDNumber(""))
	assert.False(t, ValidIDNumber("1234"))
	assert.False(t, ValidIDNumber("4403011985060712389"))
	assert.False(t, ValidIDNumber("44030119850607 238"))
	assert.False(t, ValidIDNumber("4403011985060712X8"))
}
