package evolution

import (
	"testing"

	"github.com/danmuck/wavewire/internal/codec"
	"github.com/danmuck/wavewire/internal/codec/tlvcodec"
	"github.com/danmuck/wavewire/internal/schema"
	"github.com/danmuck/wavewire/internal/testutil/testlog"
	"github.com/stretchr/testify/require"
)

func TestCheckPassesForEveryBuiltinBackend(t *testing.T) {
	testlog.Start(t)
	for _, p := range allBackends(t) {
		report, err := Check(p.codec, p.backend)
		require.NoError(t, err)
		require.True(t, report.OK(), "%s/%s: %v", p.codec.Name(), p.backend, report.Violations)
	}
}

// lossyCodec drops everything a reader does not declare on re-serialize.
type lossyCodec struct{ codec.Codec }

func (l lossyCodec) NewDecoder(b codec.Backend) (codec.Decoder, error) {
	dec, err := l.Codec.NewDecoder(b)
	if err != nil {
		return nil, err
	}
	return lossyDecoder{dec}, nil
}

type lossyDecoder struct{ codec.Decoder }

func (d lossyDecoder) Decode(data []byte, reader schema.Version) (codec.Message, error) {
	msg, err := d.Decoder.Decode(data, reader)
	if err != nil {
		return nil, err
	}
	return lossyMessage{msg}, nil
}

type lossyMessage struct{ codec.Message }

func (lossyMessage) Marshal() ([]byte, error) { return nil, nil }

func TestCheckReportsViolations(t *testing.T) {
	testlog.Start(t)
	report, err := Check(lossyCodec{tlvcodec.New()}, codec.PortableFallback)
	require.NoError(t, err)
	require.False(t, report.OK())
	require.Equal(t, "passthrough", report.Violations[0].Step)
	require.True(t, report.Introspection)
}

func TestCheckUnavailableBackend(t *testing.T) {
	testlog.Start(t)
	_, err := Check(tlvcodec.New(), codec.Native)
	require.ErrorIs(t, err, codec.ErrBackendUnavailable)
}

func TestScenarioRecordShape(t *testing.T) {
	testlog.Start(t)
	rec, err := ScenarioRecord(128, 2)
	require.NoError(t, err)
	require.Len(t, rec.Payload, 256)
	require.Nil(t, rec.Identity)
	require.Equal(t, int64(18), *rec.Extension)
	_, err = ScenarioRecord(1, 0)
	require.ErrorIs(t, err, schema.ErrChannelCount)
}
