package core

import (
	"errors"
	"testing"
)

type countingBuzzer struct {
	calls int
	err   error
}

func (b *countingBuzzer) Beep() error {
	b.calls++
	return b.err
}

func TestHaptic(t *testing.T) {
	if Haptic(nil) {
		t.Error("nil buzzer reported success")
	}

	ok := &countingBuzzer{}
	if !Haptic(ok) || ok.calls != 1 {
		t.Errorf("expected one successful beep, calls=%d", ok.calls)
	}

	failing := &countingBuzzer{err: errors.New("no bell")}
	if Haptic(failing) {
		t.Error("failing buzzer reported success")
	}
	if failing.calls != 1 {
		t.Errorf("failing buzzer should still be attempted once, calls=%d", failing.calls)
	}
}
