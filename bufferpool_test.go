// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package segbuf_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"code.streamforge.dev/segbuf"
)

func TestBufferPoolRentReleaseRoundTrip(t *testing.T) {
	pool := segbuf.NewBufferPool(segbuf.NewSettings())
	stream := segbuf.NewSegmentStream(pool)
	defer stream.Close()

	payload := make([]byte, segbuf.DefaultSegmentSize*3+17)
	for i := range payload {
		payload[i] = byte(i)
	}
	_, err := stream.Write(payload)
	require.NoError(t, err)
	require.EqualValues(t, 4, pool.RentedSegments())

	require.NoError(t, stream.Close())
	require.EqualValues(t, 0, pool.RentedSegments())
}

func TestBufferPoolGrowsPastOneGroup(t *testing.T) {
	pool := segbuf.NewBufferPool(segbuf.NewSettings())
	stream := segbuf.NewSegmentStream(pool)
	defer stream.Close()

	payload := make([]byte, segbuf.DefaultSegmentSize*(segbuf.GroupSize+5))
	_, err := stream.Write(payload)
	require.NoError(t, err)
	require.EqualValues(t, segbuf.GroupSize+5, pool.RentedSegments())
}

func TestEnableNativeBuffersIsOneShot(t *testing.T) {
	pool := segbuf.NewBufferPool(segbuf.NewSettings())
	require.NoError(t, pool.EnableNativeBuffers())
	require.NoError(t, pool.EnableNativeBuffers(), "second call with the same value must be a no-op")
}

func TestDrainDoesNotAffectHeapGroups(t *testing.T) {
	pool := segbuf.NewBufferPool(segbuf.NewSettings())
	stream := segbuf.NewSegmentStream(pool)
	_, err := stream.Write(make([]byte, segbuf.DefaultSegmentSize))
	require.NoError(t, err)
	require.NoError(t, stream.Close())
	pool.Drain() // should not panic when there are no native groups at all
}
