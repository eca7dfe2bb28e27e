package collect

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare host", "smartstore.naver.com/shop", "https://smartstore.naver.com/shop"},
		{"https kept", "https://smartstore.naver.com/shop", "https://smartstore.naver.com/shop"},
		{"http kept", "http://example.com", "http://example.com"},
		{"whitespace trimmed", "  smartstore.naver.com/shop \n", "https://smartstore.naver.com/shop"},
		{"empty", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeURL(tt.in))
		})
	}
}

func TestNavigationController_Load(t *testing.T) {
	session := newFakeSession()
	nav := NewNavigationController(session, 0)

	assert.True(t, nav.Load(context.Background(), "smartstore.naver.com/shop"))
	assert.Equal(t, []string{"https://smartstore.naver.com/shop"}, session.navigated)
}

func TestNavigationController_Load_TransportFailure(t *testing.T) {
	session := newFakeSession()
	session.navErr = errors.New("net::ERR_NAME_NOT_RESOLVED")
	nav := NewNavigationController(session, 0)

	// Failure is reported, never raised.
	assert.False(t, nav.Load(context.Background(), "https://unreachable.example"))
}

func TestNavigationController_Load_RetriesTransientFailure(t *testing.T) {
	session := newFakeSession()
	calls := 0
	session.navFn = func(string) error {
		calls++
		if calls == 1 {
			return errors.New("net::ERR_CONNECTION_RESET")
		}
		return nil
	}
	nav := NewNavigationController(session, 0)

	assert.True(t, nav.Load(context.Background(), "https://smartstore.naver.com/shop"))
	assert.Equal(t, 2, calls)
}

func TestNavigationController_Load_EmptyURL(t *testing.T) {
	session := newFakeSession()
	nav := NewNavigationController(session, 0)

	assert.False(t, nav.Load(context.Background(), ""))
	assert.Zero(t, session.navigations())
}
