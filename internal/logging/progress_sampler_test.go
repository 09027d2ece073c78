package logging

import "testing"

func TestNewProgressSamplerDefaults(t *testing.T) {
	tests := []struct {
		name       string
		bucketSize float64
		want       float64
	}{
		{"zero uses default", 0, 10},
		{"negative uses default", -3, 10},
		{"custom", 25, 25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewProgressSampler(tt.bucketSize)
			if s.bucketSize != tt.want {
				t.Fatalf("bucketSize = %v, want %v", s.bucketSize, tt.want)
			}
		})
	}
}

func TestProgressSamplerNilAlwaysLogs(t *testing.T) {
	var s *ProgressSampler
	if !s.ShouldLog(42, "encode") {
		t.Fatal("nil sampler should always log")
	}
	s.Reset()
}

func TestProgressSamplerBuckets(t *testing.T) {
	s := NewProgressSampler(25)
	steps := []struct {
		percent float64
		want    bool
	}{
		{0, true},
		{10, false},
		{24.9, false},
		{25, true},
		{30, false},
		{80, true},
		{150, true},
		{100, false},
	}
	for i, step := range steps {
		if got := s.ShouldLog(step.percent, "banners"); got != step.want {
			t.Fatalf("step %d (%v%%): got %v want %v", i, step.percent, got, step.want)
		}
	}
}

func TestProgressSamplerStageChangeResetsBucket(t *testing.T) {
	s := NewProgressSampler(50)
	if !s.ShouldLog(60, "banners") {
		t.Fatal("first event should log")
	}
	if !s.ShouldLog(10, "encode") {
		t.Fatal("stage change should log")
	}
	if s.ShouldLog(20, "encode") {
		t.Fatal("same bucket should not log")
	}
}

func TestProgressSamplerCount(t *testing.T) {
	s := NewProgressSampler(50)
	if !s.ShouldLogCount(1, 10, "banners") {
		t.Fatal("first count should log")
	}
	if s.ShouldLogCount(4, 10, "banners") {
		t.Fatal("40% should stay in the first bucket")
	}
	if !s.ShouldLogCount(5, 10, "banners") {
		t.Fatal("50% should log")
	}
	if s.ShouldLogCount(3, 0, "banners") {
		t.Fatal("unknown total without stage change should not log")
	}
}
