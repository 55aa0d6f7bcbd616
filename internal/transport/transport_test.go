package transport

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentValidate(t *testing.T) {
	require.NoError(t, Content{Kind: KindText, Text: "hi"}.Validate())
	require.NoError(t, Content{Kind: KindVoice, FileID: "f1"}.Validate())
	require.ErrorIs(t, Content{Kind: KindText, Text: "  "}.Validate(), ErrEmptyContent)
	require.ErrorIs(t, Content{Kind: KindPhoto, Caption: "x"}.Validate(), ErrEmptyContent)
	require.ErrorIs(t, Content{}.Validate(), ErrEmptyContent)
	require.Error(t, Content{Kind: "sticker", FileID: "f"}.Validate())
}

func TestFailWrapsOnce(t *testing.T) {
	assert.NoError(t, Fail(1, nil))

	boom := errors.New("boom")
	err := Fail(5, boom)
	var de *DeliveryError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, int64(5), de.Recipient)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, "deliver to 5: boom", err.Error())

	assert.Same(t, err, Fail(9, err))
}
