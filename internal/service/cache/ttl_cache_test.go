package cache

import (
	"testing"
	"time"

	"BarPulse/internal/domain/models"
)

func TestTTLQuotesSetAndLatest(t *testing.T) {
	c := NewTTLQuotes(time.Minute)
	c.Set("BalanzWebsocket#GGAL", models.Tick{LastPrice: 42})

	got, ok := c.Latest("BalanzWebsocket#GGAL")
	if !ok {
		t.Fatal("Latest miss after Set")
	}
	if got.LastPrice != 42 {
		t.Errorf("LastPrice = %v, want 42", got.LastPrice)
	}
	if _, ok := c.Latest("BalanzWebsocket#BMA"); ok {
		t.Error("Latest hit for unknown key")
	}
}

func TestTTLQuotesExpiry(t *testing.T) {
	c := NewTTLQuotes(10 * time.Millisecond)
	c.Set("k", models.Tick{LastPrice: 1})
	time.Sleep(25 * time.Millisecond)
	if _, ok := c.Latest("k"); ok {
		t.Error("entry survived past its TTL")
	}
}
