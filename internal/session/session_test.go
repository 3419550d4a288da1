// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCredentialsPresent(t *testing.T) {
	tests := []struct {
		name    string
		creds   Credentials
		present bool
		empty   bool
	}{
		{"all set", Credentials{IDToken: "i", AccessToken: "a", RefreshToken: "r"}, true, false},
		{"none set", Credentials{}, false, true},
		{"partial", Credentials{IDToken: "i"}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.present, tt.creds.Present())
			assert.Equal(t, tt.empty, tt.creds.Empty())
		})
	}
}

func TestTokenStoreReplaceAndClear(t *testing.T) {
	var ts TokenStore

	assert.True(t, ts.Snapshot().Empty())

	ts.Replace(Credentials{IDToken: "i", AccessToken: "a", RefreshToken: "r"})
	got := ts.Snapshot()
	assert.True(t, got.Present())
	assert.Equal(t, "r", got.RefreshToken)

	ts.Clear()
	assert.True(t, ts.Snapshot().Empty())
}

// Concurrent readers must only ever observe a fully-empty or fully-set
// triple, never a mix of old and new tokens.
func TestTokenStoreNoTornReads(t *testing.T) {
	var ts TokenStore

	done := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-done:
				return
			default:
			}
			if i%2 == 0 {
				ts.Replace(Credentials{IDToken: "i", AccessToken: "a", RefreshToken: "r"})
			} else {
				ts.Clear()
			}
		}
	}()

	for i := 0; i < 1000; i++ {
		got := ts.Snapshot()
		if !got.Present() && !got.Empty() {
			t.Fatalf("torn credential read: %+v", got)
		}
	}
	close(done)
	wg.Wait()
}
