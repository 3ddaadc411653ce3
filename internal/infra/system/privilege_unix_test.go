//go:build unix

package system

import (
	"os"
	"testing"
)

func TestIsElevated(t *testing.T) {
	elevated, err := IsElevated()
	if err != nil {
		t.Fatalf("IsElevated failed: %v", err)
	}
	if want := os.Geteuid() == 0; elevated != want {
		t.Errorf("IsElevated() = %v; want %v", elevated, want)
	}
}
