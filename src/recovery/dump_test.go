package recovery

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Blackdeer1524/StorageCore/src/pkg/common"
)

type jsonRecord struct {
	LSN    uint64 `json:"lsn"`
	Op     string `json:"op"`
	Txn    *int32 `json:"txn"`
	File   string `json:"file"`
	Block  int32  `json:"block"`
	Offset int32  `json:"offset"`
	Old    any    `json:"old"`
	New    any    `json:"new"`
}

func TestDumpJSON(t *testing.T) {
	e := newEnv(t, 2)
	blk := common.NewBlockID("accounts", 3)

	chain := NewTxnLogChain(e.log, 9).
		Begin().
		SetInt(blk, 16, 1, 2).
		SetString(blk, 40, "a", "b \"quoted\"").
		Commit().
		Checkpoint()
	require.NoError(t, chain.Err())

	var out bytes.Buffer
	count, err := DumpAs(e.log, &out, true, FormatJSON)
	require.NoError(t, err)
	require.Equal(t, 5, count)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 5)

	records := make([]jsonRecord, len(lines))
	for i, line := range lines {
		require.NoError(t, json.Unmarshal([]byte(line), &records[i]), line)
	}

	ops := make([]string, len(records))
	for i, r := range records {
		ops[i] = r.Op
		if i > 0 {
			assert.Greater(t, r.LSN, records[i-1].LSN)
		}
	}
	assert.Equal(t, []string{"START", "SETINT", "SETSTRING", "COMMIT", "CHECKPOINT"}, ops)

	setInt := records[1]
	require.NotNil(t, setInt.Txn)
	assert.Equal(t, int32(9), *setInt.Txn)
	assert.Equal(t, "accounts", setInt.File)
	assert.Equal(t, int32(3), setInt.Block)
	assert.Equal(t, int32(16), setInt.Offset)
	assert.EqualValues(t, 1, setInt.Old)
	assert.EqualValues(t, 2, setInt.New)

	assert.Equal(t, "b \"quoted\"", records[2].New)
	assert.Nil(t, records[4].Txn)
	assert.Equal(t, chain.LSN(), common.LSN(records[4].LSN))
}

func TestDumpUnknownFormat(t *testing.T) {
	e := newEnv(t, 2)

	_, err := DumpAs(e.log, &bytes.Buffer{}, false, DumpFormat("yaml"))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestDumpEmptyLog(t *testing.T) {
	e := newEnv(t, 2)

	var out bytes.Buffer
	count, err := DumpAs(e.log, &out, false, FormatJSON)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, out.String())
}
