package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	require.Equal(t, "results/lottery_1m/202501021001.json.z", ObjectKey(&UploadObject{
		Prefix:   "results/lottery_1m",
		FileName: "202501021001.json.z",
	}))
	require.Equal(t, "a.json", ObjectKey(&UploadObject{FileName: "a.json"}))
}
