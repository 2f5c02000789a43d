package session

import "testing"

func TestDumpMessagesDefaultOff(t *testing.T) {
	if dumpMessages() {
		t.Fatal("dumpMessages() = true with WAMPGODEBUG unset, want false")
	}
}
