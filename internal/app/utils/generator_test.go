package utils

import "testing"

func TestCreateShortKey(t *testing.T) {
	tests := []struct {
		name       string
		wantLength int
	}{
		{
			name:       "TestCreateShortKeyBigValue",
			wantLength: 17,
		},
		{
			name:       "TestCreateShortKeySmallValue",
			wantLength: 3,
		},
		{
			name:       "TestCreateShortKeyZero",
			wantLength: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CreateShortKey(tt.wantLength); len(got) != tt.wantLength {
				t.Errorf("CreateShortKey() = %v, want length %v", got, tt.wantLength)
			}
		})
	}
}

func TestCreateShortKey_Unique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		key := CreateShortKey(12)
		if _, ok := seen[key]; ok {
			t.Fatalf("duplicate key %q", key)
		}
		seen[key] = struct{}{}
	}
}
