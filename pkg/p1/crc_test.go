package p1

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCRC(t *testing.T) {
	res := ParseCRC([]byte("1A2B"), 0, 4)
	require.Nil(t, res.Err)
	assert.Equal(t, uint16(0x1A2B), res.Value)
	assert.Equal(t, 4, res.Next)

	// Lowercase digits are tolerated.
	res = ParseCRC([]byte("beef"), 0, 4)
	require.Nil(t, res.Err)
	assert.Equal(t, uint16(0xBEEF), res.Value)
}

func TestParseCRCShort(t *testing.T) {
	res := ParseCRC([]byte("1A2"), 0, 3)
	require.NotNil(t, res.Err)
	assert.Equal(t, KindFraming, res.Err.Kind)
}

func TestParseCRCMalformed(t *testing.T) {
	res := ParseCRC([]byte("1G2B"), 0, 4)
	require.NotNil(t, res.Err)
	assert.Equal(t, KindChecksum, res.Err.Kind)
}

func TestRunningCRCVariant(t *testing.T) {
	// CRC16/ARC check value for "123456789". A silent drift to another
	// variant would make the verifier accept corrupted telegrams.
	assert.Equal(t, uint16(0xBB3D), updateCRC(0, []byte("123456789")))

	// Incremental updates must match a single pass.
	one := updateCRC(0, []byte("/FLU5\\telegram!"))
	two := updateCRC(updateCRC(0, []byte("/FLU5\\")), []byte("telegram!"))
	assert.Equal(t, one, two)
}
