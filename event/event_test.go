// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package event_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/credmint/event"
)

const testEvtType event.EventType = "test.event"

func TestEventBusSingleSubscriber(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	_, subCh := eb.Subscribe(testEvtType)
	eb.Publish(testEvtType, event.NewEvent(testEvtType, 999))
	select {
	case evt, ok := <-subCh:
		require.True(t, ok, "event channel closed unexpectedly")
		assert.Equal(t, 999, evt.Data)
		assert.Equal(t, testEvtType, evt.Type)
	case <-time.After(1 * time.Second):
		t.Fatalf("timeout waiting for event")
	}
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	_, sub1Ch := eb.Subscribe(testEvtType)
	_, sub2Ch := eb.Subscribe(testEvtType)
	_, otherCh := eb.Subscribe("other.event")
	eb.Publish(testEvtType, event.NewEvent(testEvtType, "data"))
	for _, ch := range []<-chan event.Event{sub1Ch, sub2Ch} {
		select {
		case evt := <-ch:
			assert.Equal(t, "data", evt.Data)
		case <-time.After(1 * time.Second):
			t.Fatalf("timeout waiting for event")
		}
	}
	select {
	case evt := <-otherCh:
		t.Fatalf("received unexpected event: %v", evt)
	default:
	}
}

func TestEventBusUnsubscribe(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	subId, subCh := eb.Subscribe(testEvtType)
	eb.Unsubscribe(testEvtType, subId)
	eb.Publish(testEvtType, event.NewEvent(testEvtType, 1))
	_, ok := <-subCh
	assert.False(t, ok, "expected closed channel")
	// Unknown subscriber is a no-op
	eb.Unsubscribe(testEvtType, subId)
}

func TestEventBusSubscribeFuncAsync(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	var count atomic.Int32
	eb.SubscribeFunc(
		event.MintAssembledEventType,
		func(evt event.Event) {
			if _, ok := evt.Data.(event.MintAssembledEvent); ok {
				count.Add(1)
			}
		},
	)
	for range 3 {
		ok := eb.PublishAsync(
			event.MintAssembledEventType,
			event.NewEvent(
				event.MintAssembledEventType,
				event.MintAssembledEvent{TxHash: "abc", Assets: 2},
			),
		)
		require.True(t, ok)
	}
	assert.Eventually(
		t,
		func() bool { return count.Load() == 3 },
		2*time.Second,
		10*time.Millisecond,
	)
}

func TestEventBusStop(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	_, subCh := eb.Subscribe(testEvtType)
	eb.Stop()
	_, ok := <-subCh
	assert.False(t, ok)
	assert.False(
		t,
		eb.PublishAsync(testEvtType, event.NewEvent(testEvtType, 1)),
	)
	// Stop is idempotent
	eb.Stop()
}

func TestEventBusMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	eb := event.NewEventBus(reg, nil)
	defer eb.Stop()
	_, subCh := eb.Subscribe(testEvtType)
	eb.Publish(testEvtType, event.NewEvent(testEvtType, 1))
	<-subCh
	count, err := testutil.GatherAndCount(reg, "credmint_event_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	count, err = testutil.GatherAndCount(reg, "credmint_event_subscribers")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
