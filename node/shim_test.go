package node_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorasim/lorasim/node"
	"github.com/lorasim/lorasim/node/testfirmware"
	"github.com/lorasim/lorasim/progctx"
)

func TestTaskForwardsTxRequestsAsOutputEvents(t *testing.T) {
	ctx := progctx.New(context.Background())
	output := make(chan node.OutputEvent, node.OutputQueueCapacity)
	fw := testfirmware.New()
	task := node.NewTask(1, output, fw)

	go task.Run(ctx)
	fw.Send(node.Packet{MessageType: 7, Payload: []byte("hello")})

	select {
	case evt := <-output:
		require.NotNil(t, evt.TxPacket)
		assert.Equal(t, node.MessageType(7), evt.TxPacket.MessageType)
		assert.EqualValues(t, 1, evt.TxPacket.SenderID)
	case <-time.After(time.Second):
		t.Fatal("no output event received")
	}

	ctx.Cancel("test done")
}

func TestTaskClampsOverlongPayload(t *testing.T) {
	ctx := progctx.New(context.Background())
	output := make(chan node.OutputEvent, node.OutputQueueCapacity)
	fw := testfirmware.New()
	task := node.NewTask(2, output, fw)

	go task.Run(ctx)
	big := make([]byte, 300)
	fw.Send(node.Packet{Payload: big})

	evt := <-output
	assert.Len(t, evt.TxPacket.Payload, node.MaxPayloadBytes)

	ctx.Cancel("test done")
}

func TestTaskRecordsRxHistory(t *testing.T) {
	ctx := progctx.New(context.Background())
	output := make(chan node.OutputEvent, node.OutputQueueCapacity)
	fw := testfirmware.New()
	task := node.NewTask(3, output, fw)

	go task.Run(ctx)
	task.InputQueue() <- node.RxDelivery{
		Packet:      node.Packet{MessageType: 1, Payload: []byte("x")},
		SenderID:    9,
		RssiDbm:     -80,
		LinkQuality: 40,
	}

	require.Eventually(t, func() bool {
		return len(task.History.Snapshot()) == 1
	}, time.Second, 5*time.Millisecond)

	snap := task.History.Snapshot()
	assert.Equal(t, node.HistoryRx, snap[0].Kind)
	assert.EqualValues(t, 9, snap[0].PeerID)

	ctx.Cancel("test done")
}
